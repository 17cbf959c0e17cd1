// Package smtp delivers outbound email over SMTP with STARTTLS and SASL
// PLAIN authentication, as Gmail-class providers require.
package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"coldmailer/internal/core"
)

// Config holds SMTP connection settings and sender credentials.
type Config struct {
	Host       string
	Port       int
	UseTLS     bool
	Timeout    time.Duration
	Username   string
	Password   string
	SenderName string
}

// Transmitter is a core.Transmitter speaking SMTP. One connection per send;
// at a few hundred contacts with enforced inter-send delays, connection
// reuse buys nothing.
type Transmitter struct {
	cfg    Config
	logger *zap.Logger
}

// NewTransmitter creates an SMTP transmitter.
func NewTransmitter(cfg Config, logger *zap.Logger) *Transmitter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Transmitter{cfg: cfg, logger: logger}
}

// Send delivers one email. Failures are classified into a
// core.TransmissionError so the coordinator can report them.
func (t *Transmitter) Send(ctx context.Context, email *core.OutboundEmail) error {
	if err := ctx.Err(); err != nil {
		return &core.TransmissionError{Reason: core.TransmissionOther, Err: err}
	}
	if t.cfg.Username == "" || t.cfg.Password == "" {
		return core.ErrNoCredentials
	}

	client, err := t.connect()
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Mail(t.cfg.Username, nil); err != nil {
		return &core.TransmissionError{Reason: core.TransmissionOther, Err: fmt.Errorf("MAIL FROM failed: %w", err)}
	}
	if err := client.Rcpt(email.To, nil); err != nil {
		return &core.TransmissionError{Reason: core.TransmissionRecipient, Err: fmt.Errorf("recipient %s refused: %w", email.To, err)}
	}

	wc, err := client.Data()
	if err != nil {
		return &core.TransmissionError{Reason: core.TransmissionOther, Err: fmt.Errorf("DATA command failed: %w", err)}
	}
	if _, err := wc.Write(buildMessage(FormatAddress(t.cfg.SenderName, t.cfg.Username), email)); err != nil {
		wc.Close()
		return &core.TransmissionError{Reason: core.TransmissionConnection, Err: fmt.Errorf("failed to send message data: %w", err)}
	}
	if err := wc.Close(); err != nil {
		return &core.TransmissionError{Reason: core.TransmissionOther, Err: fmt.Errorf("failed to finish message data: %w", err)}
	}

	if err := client.Quit(); err != nil {
		// Message is already accepted at this point.
		t.logger.Warn("QUIT failed after delivery", zap.Error(err))
	}
	return nil
}

// TestConnection dials, negotiates TLS and authenticates without sending
// anything. Used by the test-smtp command.
func (t *Transmitter) TestConnection(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.cfg.Username == "" || t.cfg.Password == "" {
		return core.ErrNoCredentials
	}
	client, err := t.connect()
	if err != nil {
		return err
	}
	defer client.Close()
	return client.Quit()
}

// connect dials the server, negotiates STARTTLS when configured and
// authenticates.
func (t *Transmitter) connect() (*gosmtp.Client, error) {
	addr := net.JoinHostPort(t.cfg.Host, strconv.Itoa(t.cfg.Port))
	conn, err := net.DialTimeout("tcp", addr, t.cfg.Timeout)
	if err != nil {
		return nil, &core.TransmissionError{Reason: core.TransmissionConnection, Err: fmt.Errorf("failed to connect to %s: %w", addr, err)}
	}
	if err := conn.SetDeadline(time.Now().Add(t.cfg.Timeout)); err != nil {
		conn.Close()
		return nil, &core.TransmissionError{Reason: core.TransmissionConnection, Err: fmt.Errorf("failed to set connection deadline: %w", err)}
	}

	client := gosmtp.NewClient(conn)
	if err := client.Hello(localHostname()); err != nil {
		client.Close()
		return nil, &core.TransmissionError{Reason: core.TransmissionConnection, Err: fmt.Errorf("EHLO failed: %w", err)}
	}
	if t.cfg.UseTLS {
		if err := client.StartTLS(&tls.Config{ServerName: t.cfg.Host}); err != nil {
			client.Close()
			return nil, &core.TransmissionError{Reason: core.TransmissionConnection, Err: fmt.Errorf("STARTTLS failed: %w", err)}
		}
	}
	if err := client.Auth(sasl.NewPlainClient("", t.cfg.Username, t.cfg.Password)); err != nil {
		client.Close()
		return nil, &core.TransmissionError{Reason: core.TransmissionAuth, Err: fmt.Errorf("authentication failed for %s: %w", t.cfg.Username, err)}
	}
	return client, nil
}

func localHostname() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return "localhost"
	}
	return hostname
}

// IsAuthError reports whether err is an authentication failure.
func IsAuthError(err error) bool {
	var te *core.TransmissionError
	return errors.As(err, &te) && te.Reason == core.TransmissionAuth
}

// FormatAddress renders "Name <email>" when a display name is available.
func FormatAddress(name, email string) string {
	if strings.TrimSpace(name) == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}
