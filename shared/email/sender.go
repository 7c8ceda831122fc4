package email

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"net/smtp"

	"video-kb/internal/models"
	"video-kb/shared/config"
)

//go:embed digest.html
var digestTemplate string

var digestTmpl = template.Must(template.New("digest").Funcs(template.FuncMap{
	"date": func(v *models.Video) string { return v.CreatedAt.Format("Jan 2, 15:04") },
	"url":  func(v *models.Video) string { return "https://www.youtube.com/watch?v=" + v.Identifier },
}).Parse(digestTemplate))

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Sender struct {
	config   *config.EmailConfig
	sendMail sendFunc
}

func NewSender(cfg *config.EmailConfig) *Sender {
	return &Sender{
		config:   cfg,
		sendMail: smtp.SendMail,
	}
}

// SendDigest mails the videos added by a watchlist run. Runs that created
// nothing send no mail.
func (s *Sender) SendDigest(digest *models.IngestDigest) error {
	if digest == nil {
		return fmt.Errorf("digest cannot be nil")
	}

	if len(digest.Created) == 0 {
		return nil
	}

	subject := fmt.Sprintf("Video Knowledge Base - %d New Videos (%s)",
		len(digest.Created), digest.Date.Format("Jan 2, 2006"))

	body, err := renderDigest(digest)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}

	return s.SendHTML(subject, body)
}

// SendHTML sends an email with custom HTML content
func (s *Sender) SendHTML(subject, htmlBody string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)

	to := []string{s.config.ToEmail}
	msg := []byte(fmt.Sprintf("To: %s\r\nFrom: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.config.ToEmail, s.config.FromEmail, subject, htmlBody))

	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	if err := s.sendMail(addr, auth, s.config.FromEmail, to, msg); err != nil {
		return fmt.Errorf("failed to send email via %s: %w", addr, err)
	}
	return nil
}

func renderDigest(digest *models.IngestDigest) (string, error) {
	var buf bytes.Buffer
	if err := digestTmpl.Execute(&buf, digest); err != nil {
		return "", err
	}
	return buf.String(), nil
}
