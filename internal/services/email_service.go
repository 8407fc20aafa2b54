package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/localplate/waitlist/internal/config"
	"github.com/localplate/waitlist/internal/utils"
	"go.uber.org/zap"
)

type EmailService struct {
	cfg    *config.SMTPConfig
	logger *zap.Logger
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailService(cfg *config.SMTPConfig, logger *zap.Logger) *EmailService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailService{cfg: cfg, logger: logger, send: smtp.SendMail}
}

// Configured reports whether SMTP credentials are present.
func (s *EmailService) Configured() bool {
	return s.cfg != nil && s.cfg.User != "" && s.cfg.Password != ""
}

// SendEmail sends an email using SMTP
func (s *EmailService) SendEmail(to, subject, htmlBody string) error {
	if !s.Configured() {
		// Skip sending if SMTP not configured
		return nil
	}

	from := s.cfg.FromEmail
	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)

	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	msg := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\n%s\r\n%s",
		s.cfg.FromName, from, to, subject, mime, htmlBody)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	if err := s.send(addr, auth, from, []string{to}, []byte(msg)); err != nil {
		s.logger.Warn("email delivery failed",
			zap.String("email_fp", utils.EmailFingerprint(to)),
			zap.String("subject", subject),
			zap.Error(err))
		return fmt.Errorf("send email: %w", err)
	}
	s.logger.Info("email sent", zap.String("email_fp", utils.EmailFingerprint(to)), zap.String("subject", subject))
	return nil
}

const confirmationTemplate = `
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #1F2937; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #059669; color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0; }
        .content { background: #ECFDF5; padding: 30px; border-radius: 0 0 10px 10px; }
        .code-box { background: white; border: 2px solid #059669; padding: 20px; border-radius: 10px; margin: 20px 0; text-align: center; }
        .button { display: inline-block; background: #059669; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; margin-top: 20px; }
        .footer { text-align: center; margin-top: 20px; color: #808080; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>You're on the LocalPlate waitlist</h1>
        </div>
        <div class="content">
            <p>Thanks for joining the Founding Cohort. We'll email you as soon as your invite is ready.</p>
            <div class="code-box">
                <h3>Your referral code</h3>
                <p style="font-size: 24px; font-weight: bold; letter-spacing: 4px; color: #059669;">{{.ReferralCode}}</p>
            </div>
            <p>Invite friends to move up: 1 referral unlocks the Early Access Badge, 3 unlock a free month and 5 earn the Swag Pack.</p>
            <a href="{{.ReferralLink}}" class="button">Share your link</a>
        </div>
        <div class="footer">
            <p>© LocalPlate. You received this because you joined our waitlist.</p>
        </div>
    </div>
</body>
</html>
`

// SendWaitlistConfirmation emails a new signup their referral code and link.
func (s *EmailService) SendWaitlistConfirmation(email, referralCode, referralLink string) error {
	if !s.Configured() {
		return nil
	}
	body, err := renderTemplate(confirmationTemplate, struct {
		ReferralCode string
		ReferralLink string
	}{referralCode, referralLink})
	if err != nil {
		return err
	}
	return s.SendEmail(email, "You're on the LocalPlate waitlist 🎉", body)
}

// Helper to render templates
func renderTemplate(tmpl string, data any) (string, error) {
	t, err := template.New("email").Parse(tmpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
