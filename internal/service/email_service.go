package service

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/edoto/marketplace/internal/config"
	"github.com/edoto/marketplace/internal/models"
)

// EmailService sends transactional mail over SMTP.
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService creates the service.
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// PaymentOTPEmailInput carries the pickup code mail content.
type PaymentOTPEmailInput struct {
	TrackingNumber string
	OTP            string
	Amount         models.Money
	Currency       string
	PickupPoint    string
}

// SendPaymentOTP mails the pickup code after a settlement. Settlement treats
// a send failure as fatal, so this must not swallow errors.
func (s *EmailService) SendPaymentOTP(toEmail string, input PaymentOTPEmailInput) error {
	subject := fmt.Sprintf("Payment received for order %s", input.TrackingNumber)
	var body strings.Builder
	body.WriteString(fmt.Sprintf("Your payment of %s %s for order %s was received.\n\n",
		input.Amount.String(), input.Currency, input.TrackingNumber))
	body.WriteString(fmt.Sprintf("Your pickup code is: %s\n\n", input.OTP))
	if point := strings.TrimSpace(input.PickupPoint); point != "" {
		body.WriteString(fmt.Sprintf("Present this code at %s to collect your order.\n", point))
	} else {
		body.WriteString("Present this code at your pickup point to collect your order.\n")
	}
	body.WriteString("The code expires in 48 hours. Do not share it.")
	return s.sendTextEmail(toEmail, subject, body.String())
}

// SendCampaignOTP mails a kit collection code to a campaign registrant.
func (s *EmailService) SendCampaignOTP(toEmail, campaignTitle, otp string) error {
	subject := fmt.Sprintf("Your kit collection code for %s", campaignTitle)
	body := fmt.Sprintf("Thank you for registering for %s.\n\nYour collection code is: %s\n\nThe code expires in 48 hours. Do not share it.",
		campaignTitle, otp)
	return s.sendTextEmail(toEmail, subject, body)
}

// SendCustomEmail sends an arbitrary message, used by the SMTP config test.
func (s *EmailService) SendCustomEmail(toEmail, subject, body string) error {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "SMTP configuration test"
	}
	body = strings.TrimSpace(body)
	if body == "" {
		body = "This is a test message confirming the SMTP configuration works."
	}
	return s.sendTextEmail(toEmail, subject, body)
}

func (s *EmailService) sendTextEmail(toEmail, subject, body string) error {
	if s.cfg == nil || !s.cfg.Enabled {
		return fmt.Errorf("%w: email disabled", ErrEmailConfigInvalid)
	}
	if s.cfg.Host == "" || s.cfg.Port == 0 || s.cfg.From == "" {
		return fmt.Errorf("%w: host/port/from are required", ErrEmailConfigInvalid)
	}
	if _, err := mail.ParseAddress(toEmail); err != nil {
		return fmt.Errorf("%w: bad recipient %q", ErrEmailSendFailed, toEmail)
	}

	from := buildFromAddress(s.cfg.From, s.cfg.FromName)
	msg := buildEmailMessage(from, toEmail, subject, body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" || s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	var err error
	switch {
	case s.cfg.UseSSL:
		err = sendMailWithSSL(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg))
	case s.cfg.UseTLS:
		err = sendMailWithStartTLS(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg))
	default:
		err = sendMailPlain(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg))
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmailSendFailed, err)
	}
	return nil
}

func buildFromAddress(from, name string) string {
	if strings.TrimSpace(name) == "" {
		return from
	}
	encoded := mime.QEncoding.Encode("UTF-8", name)
	return (&mail.Address{Name: encoded, Address: from}).String()
}

func buildEmailMessage(from, to, subject, body string) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", to))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject)))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.String()
}

func sendMailWithSSL(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendMailWithStartTLS(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
		return err
	}

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendMailPlain(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendSMTPData(client *smtp.Client, from string, to []string, msg []byte) error {
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}
