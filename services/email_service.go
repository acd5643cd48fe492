package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/crichub/cricket-auction/config"
	"github.com/crichub/cricket-auction/events"
)

// EmailService delivers auction notifications over SMTP. It runs strictly
// after commit via the event dispatcher; delivery failures are the
// dispatcher's to log, never the auction's to roll back.
type EmailService struct {
	cfg *config.Config
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{cfg: cfg}
}

// Handle implements events.Handler.
func (s *EmailService) Handle(ctx context.Context, env events.Envelope) error {
	switch evt := env.Payload.(type) {
	case events.PlayerSold:
		if evt.OwnerEmail == "" {
			return nil
		}
		return s.SendPlayerSoldEmail(evt.OwnerEmail, evt.PlayerName, evt.TeamName, evt.Price)
	case events.TeamOwnerApproved:
		if evt.OwnerEmail == "" {
			return nil
		}
		return s.SendOwnerApprovedEmail(evt.OwnerEmail, evt.TeamName, evt.Budget)
	default:
		// Bid/round/unsold events are live-stream only.
		return nil
	}
}

func (s *EmailService) SendEmail(to []string, subject string, body string) error {
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)

	msg := []byte("To: " + to[0] + "\r\n" +
		"From: " + s.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	tlsconfig := &tls.Config{
		ServerName: s.cfg.SMTPHost,
	}

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		// Implicit TLS.
		conn, err := tls.Dial("tcp", addr, tlsconfig)
		if err != nil {
			return fmt.Errorf("smtp tls dial: %w", err)
		}
		defer conn.Close()
		client, err = smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			return fmt.Errorf("smtp client: %w", err)
		}
	} else {
		// STARTTLS.
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("smtp dial: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsconfig); err != nil {
			client.Close()
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp rcpt to: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}
	return nil
}

func (s *EmailService) GenerateEmailBody(templatePath string, data interface{}) (string, error) {
	t, err := template.ParseFiles(templatePath)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", templatePath, err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", templatePath, err)
	}
	return body.String(), nil
}

func (s *EmailService) SendPlayerSoldEmail(ownerEmail, playerName, teamName string, price int) error {
	subject := fmt.Sprintf("Congratulations! %s joins %s", playerName, teamName)
	data := struct {
		PlayerName string
		TeamName   string
		Price      int
		Link       string
	}{
		PlayerName: playerName,
		TeamName:   teamName,
		Price:      price,
		Link:       s.cfg.PublicURL,
	}
	body, err := s.GenerateEmailBody("templates/emails/player_sold_email.html", data)
	if err != nil {
		return err
	}
	return s.SendEmail([]string{ownerEmail}, subject, body)
}

func (s *EmailService) SendOwnerApprovedEmail(ownerEmail, teamName string, budget int) error {
	subject := fmt.Sprintf("Team %s approved for the auction", teamName)
	data := struct {
		TeamName string
		Budget   int
		Link     string
	}{
		TeamName: teamName,
		Budget:   budget,
		Link:     s.cfg.PublicURL,
	}
	body, err := s.GenerateEmailBody("templates/emails/team_owner_approved_email.html", data)
	if err != nil {
		return err
	}
	return s.SendEmail([]string{ownerEmail}, subject, body)
}
