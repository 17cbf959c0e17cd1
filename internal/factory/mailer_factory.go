package factory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	smtpadapter "coldmailer/internal/adapters/smtp"
	"coldmailer/internal/adapters/template"
	"coldmailer/internal/config"
	"coldmailer/internal/core"
)

// MailerFactory creates the transmission and rendering components
type MailerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewMailerFactory creates a new mailer factory
func NewMailerFactory(cfg *config.Config, logger *zap.Logger) *MailerFactory {
	return &MailerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateTransmitter creates the SMTP transmitter from configuration
func (f *MailerFactory) CreateTransmitter() *smtpadapter.Transmitter {
	sc := f.cfg.GetSMTP()
	return smtpadapter.NewTransmitter(smtpadapter.Config{
		Host:       sc.Host,
		Port:       sc.Port,
		UseTLS:     sc.UseTLS,
		Timeout:    sc.Timeout,
		Username:   sc.Username,
		Password:   sc.Password,
		SenderName: f.cfg.GetSender().Name,
	}, f.logger)
}

// CreateRenderer creates the template renderer from configuration
func (f *MailerFactory) CreateRenderer() *template.Renderer {
	ec := f.cfg.GetEmail()
	sender := f.cfg.GetSender()

	styles := make(map[string]template.StylePatterns)
	for name, s := range f.cfg.GetGreetingStyles() {
		styles[name] = template.StylePatterns{
			WithTitle:    s.WithTitle,
			WithoutTitle: s.WithoutTitle,
		}
	}

	return template.NewRenderer(template.Config{
		Dir:           f.cfg.GetPaths().Templates,
		Styles:        styles,
		Sender:        template.Sender{Name: sender.Name, Signature: sender.Signature},
		SubjectPrefix: ec.SubjectPrefix,
	})
}

// LoadResumeAttachment reads the configured resume file when attaching is
// enabled. Returns nil without error when attaching is disabled.
func (f *MailerFactory) LoadResumeAttachment() (*core.Attachment, error) {
	ec := f.cfg.GetEmail()
	if !ec.AttachResume {
		return nil, nil
	}

	path := filepath.Join(f.cfg.GetPaths().Attachments, ec.ResumeFilename)
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read resume attachment %s: %w", path, err)
	}

	contentType := "application/octet-stream"
	if strings.HasSuffix(strings.ToLower(ec.ResumeFilename), ".pdf") {
		contentType = "application/pdf"
	}
	return &core.Attachment{
		Filename:    ec.ResumeFilename,
		ContentType: contentType,
		Content:     content,
	}, nil
}
