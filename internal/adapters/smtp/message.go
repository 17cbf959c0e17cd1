package smtp

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"strings"
	"time"

	"coldmailer/internal/core"
)

const attachmentBoundary = "coldmailer-mixed-boundary"

// buildMessage assembles the RFC 5322 message body. Plain text when there is
// no attachment, multipart/mixed with a base64 part otherwise.
func buildMessage(from string, email *core.OutboundEmail) []byte {
	var buf bytes.Buffer

	writeHeader(&buf, "From", from)
	writeHeader(&buf, "To", email.To)
	writeHeader(&buf, "Subject", mime.QEncoding.Encode("utf-8", email.Subject))
	writeHeader(&buf, "Date", time.Now().Format(time.RFC1123Z))
	writeHeader(&buf, "MIME-Version", "1.0")

	if email.Attachment == nil {
		writeHeader(&buf, "Content-Type", `text/plain; charset="utf-8"`)
		buf.WriteString("\r\n")
		buf.WriteString(normalizeNewlines(email.Body))
		return buf.Bytes()
	}

	writeHeader(&buf, "Content-Type", fmt.Sprintf(`multipart/mixed; boundary="%s"`, attachmentBoundary))
	buf.WriteString("\r\n")

	buf.WriteString("--" + attachmentBoundary + "\r\n")
	writeHeader(&buf, "Content-Type", `text/plain; charset="utf-8"`)
	buf.WriteString("\r\n")
	buf.WriteString(normalizeNewlines(email.Body))
	buf.WriteString("\r\n")

	att := email.Attachment
	contentType := att.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	buf.WriteString("--" + attachmentBoundary + "\r\n")
	writeHeader(&buf, "Content-Type", fmt.Sprintf(`%s; name="%s"`, contentType, att.Filename))
	writeHeader(&buf, "Content-Transfer-Encoding", "base64")
	writeHeader(&buf, "Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, att.Filename))
	buf.WriteString("\r\n")
	writeBase64(&buf, att.Content)
	buf.WriteString("\r\n--" + attachmentBoundary + "--\r\n")

	return buf.Bytes()
}

func writeHeader(buf *bytes.Buffer, key, value string) {
	buf.WriteString(key)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\r\n")
}

// writeBase64 encodes content wrapped at 76 characters per line.
func writeBase64(buf *bytes.Buffer, content []byte) {
	encoded := base64.StdEncoding.EncodeToString(content)
	for len(encoded) > 76 {
		buf.WriteString(encoded[:76])
		buf.WriteString("\r\n")
		encoded = encoded[76:]
	}
	buf.WriteString(encoded)
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}
