package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/soumadip-dev/AuthSystem-API/internal/logging"
)

// Sender dispatches account notifications. The auth service depends on this
// interface and never constructs mail transports itself.
type Sender interface {
	SendVerificationEmail(ctx context.Context, toEmail, name, token string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, name, token string) error
}

// Service sends mail over SMTP with HTML bodies. Links are built from the
// configured public base URL of the frontend.
type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
	baseURL      string
}

func NewService(smtpHost, smtpPort, smtpUser, smtpPassword, fromEmail, baseURL string) *Service {
	if fromEmail == "" {
		fromEmail = smtpUser
	}
	return &Service{
		smtpHost:     smtpHost,
		smtpPort:     smtpPort,
		smtpUser:     smtpUser,
		smtpPassword: smtpPassword,
		fromEmail:    fromEmail,
		baseURL:      baseURL,
	}
}

// SendVerificationEmail sends the account verification link
func (s *Service) SendVerificationEmail(ctx context.Context, toEmail, name, token string) error {
	logger := logging.GetLoggerFromContext(ctx)

	link := fmt.Sprintf("%s/verify?token=%s", s.baseURL, token)

	body, err := renderTemplate(verificationTemplate, mailData{Name: name, Link: link})
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(toEmail, "Verify your email address", body); err != nil {
		logger.Error("failed to send verification email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("verification email sent", "email", toEmail)
	return nil
}

// SendPasswordResetEmail sends the password reset link
func (s *Service) SendPasswordResetEmail(ctx context.Context, toEmail, name, token string) error {
	logger := logging.GetLoggerFromContext(ctx)

	link := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token)

	body, err := renderTemplate(resetTemplate, mailData{Name: name, Link: link})
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(toEmail, "Reset your password", body); err != nil {
		logger.Error("failed to send password reset email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("password reset email sent", "email", toEmail)
	return nil
}

func (s *Service) sendEmail(to, subject, body string) error {
	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.fromEmail, to, subject, body,
	))

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	return smtp.SendMail(addr, auth, s.fromEmail, []string{to}, msg)
}

type mailData struct {
	Name string
	Link string
}

func renderTemplate(tmpl string, data mailData) (string, error) {
	t, err := template.New("mail").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}

const verificationTemplate = `
<div style="font-family: Arial, sans-serif; color: #333; padding: 20px; max-width: 600px; margin: auto; border: 1px solid #ddd; border-radius: 10px;">
  <h2 style="color: #007bff; text-align: center;">Verify Your Email Address</h2>
  <p>Hello <strong>{{.Name}}</strong>,</p>
  <p>Thank you for signing up! Please click the button below to verify your email address and activate your account.</p>
  <p style="text-align: center;">
    <a href="{{.Link}}" style="background-color: #007bff; color: #ffffff; padding: 12px 20px; text-decoration: none; border-radius: 5px; font-size: 16px; display: inline-block;">Verify Email</a>
  </p>
  <p>Or copy and paste this link into your browser:</p>
  <p style="word-break: break-all; color: #007bff;">{{.Link}}</p>
  <p>This link will expire in 24 hours. If you didn't create an account, you can safely ignore this email.</p>
</div>
`

const resetTemplate = `
<div style="font-family: Arial, sans-serif; color: #333; padding: 20px; max-width: 600px; margin: auto; border: 1px solid #ddd; border-radius: 10px;">
  <h2 style="color: #007bff; text-align: center;">Password Reset Request</h2>
  <p>Hello <strong>{{.Name}}</strong>,</p>
  <p>You requested to reset your password. Click the button below to create a new password.</p>
  <p style="text-align: center;">
    <a href="{{.Link}}" style="background-color: #007bff; color: #ffffff; padding: 12px 20px; text-decoration: none; border-radius: 5px; font-size: 16px; display: inline-block;">Reset Password</a>
  </p>
  <p>Or copy and paste this link into your browser:</p>
  <p style="word-break: break-all; color: #007bff;">{{.Link}}</p>
  <p>If you didn't request a password reset, you can safely ignore this email. Your password will remain unchanged.</p>
</div>
`
