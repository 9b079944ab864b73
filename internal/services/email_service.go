package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/resend/resend-go/v2"

	"github.com/habitek/habitek-api/internal/config"
	"github.com/habitek/habitek-api/internal/models"
	"github.com/habitek/habitek-api/pkg/logger"
)

//go:embed templates/email/*.html
var emailTemplates embed.FS

type EmailService struct {
	config       *config.Config
	resendClient *resend.Client
}

func NewEmailService(cfg *config.Config) *EmailService {
	client := resend.NewClient(cfg.ResendAPIKey)
	return &EmailService{
		config:       cfg,
		resendClient: client,
	}
}

func (s *EmailService) SendRecoveryCode(ctx context.Context, user *models.User, code string) error {
	data := struct {
		Name    string
		Code    string
		Minutes int
		AppURL  string
	}{
		Name:    user.FullName,
		Code:    code,
		Minutes: 15,
		AppURL:  s.config.AppURL,
	}

	body, err := s.renderTemplate("recovery_code.html", data)
	if err != nil {
		return err
	}

	return s.send(user.Email, "Password recovery code", body)
}

func (s *EmailService) SendAccountCreated(ctx context.Context, user *models.User) error {
	data := struct {
		Name   string
		AppURL string
	}{
		Name:   user.FullName,
		AppURL: s.config.AppURL,
	}

	body, err := s.renderTemplate("account_created.html", data)
	if err != nil {
		return err
	}

	return s.send(user.Email, "Welcome to Habitek", body)
}

// SendPaymentReceived confirms a settled payment to the unit owner
func (s *EmailService) SendPaymentReceived(ctx context.Context, user *models.User, payment *models.Payment, unitNumber string) error {
	data := struct {
		Name       string
		Amount     string
		UnitNumber string
		Method     string
		AppURL     string
	}{
		Name:       user.FullName,
		Amount:     fmt.Sprintf("%.2f", payment.Amount),
		UnitNumber: unitNumber,
		Method:     payment.Method,
		AppURL:     s.config.AppURL,
	}

	body, err := s.renderTemplate("payment_received.html", data)
	if err != nil {
		return err
	}

	return s.send(user.Email, "Payment received", body)
}

// SendChargeReminder reminds the owner about an unpaid charge
func (s *EmailService) SendChargeReminder(ctx context.Context, user *models.User, charge *models.UnitCharge, unitNumber string) error {
	data := struct {
		Name       string
		UnitNumber string
		Period     string
		Balance    string
		DueDate    string
		AppURL     string
	}{
		Name:       user.FullName,
		UnitNumber: unitNumber,
		Period:     charge.Period,
		Balance:    fmt.Sprintf("%.2f", charge.Balance()),
		DueDate:    charge.DueDate.Format("2006-01-02"),
		AppURL:     s.config.AppURL,
	}

	body, err := s.renderTemplate("charge_reminder.html", data)
	if err != nil {
		return err
	}

	return s.send(user.Email, fmt.Sprintf("Dues reminder for unit %s", unitNumber), body)
}

func (s *EmailService) send(to, subject, html string) error {
	if s.config.ResendAPIKey == "" {
		logger.Info(fmt.Sprintf("📧 [Email Skipped] To: %s | Subject: %s", to, subject))
		return nil
	}

	params := &resend.SendEmailRequest{
		From:    s.config.FromEmail,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}
	_, err := s.resendClient.Emails.Send(params)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to send email to %s: %v", to, err))
		return err
	}

	logger.Info(fmt.Sprintf("📧 [Email Sent] To: %s | Subject: %s", to, subject))
	return nil
}

func (s *EmailService) renderTemplate(name string, data any) (string, error) {
	tmpl, err := template.ParseFS(emailTemplates, "templates/email/"+name)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return buf.String(), nil
}
