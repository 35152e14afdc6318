package services

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"fuelflow-api/config"
	"fuelflow-api/models"
)

type EmailService struct {
	config *config.Config
	dialer *gomail.Dialer
}

func NewEmailService(cfg *config.Config) *EmailService {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)

	return &EmailService{
		config: cfg,
		dialer: dialer,
	}
}

// SendExceptionAlert notifies the fleet administrator that a vehicle
// exception was recorded. to falls back to the global admin address.
func (es *EmailService) SendExceptionAlert(to string, exception *models.VehicleException, registration string) error {
	if to == "" {
		to = es.config.AdminEmail
	}

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(es.config.FromEmail, es.config.FromName))
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Vehicle exception: %s (%s)", registration, exception.Type))

	body := fmt.Sprintf(`
		<h2>Vehicle Exception Recorded</h2>
		<p><strong>Vehicle:</strong> %s</p>
		<p><strong>Type:</strong> %s</p>
		<p><strong>Description:</strong> %s</p>
		<p><strong>Expected:</strong> %s</p>
		<p><strong>Actual:</strong> %s</p>
		<p>Review this exception in the fleet reporting dashboard.</p>
	`, registration, exception.Type, exception.Description, exception.ExpectedValue, exception.ActualValue)
	m.SetBody("text/html", body)

	if err := es.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send exception alert: %w", err)
	}
	return nil
}
