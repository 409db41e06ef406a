package utils

import (
	"fmt"

	"github.com/keighl/postmark"
)

// EmailService sends transactional mail through Postmark.
type EmailService struct {
	client *postmark.Client
	sender string
}

// NewEmailService builds a mailer with the given server token and sender
// address.
func NewEmailService(apiToken, sender string) *EmailService {
	return &EmailService{
		client: postmark.NewClient(apiToken, ""),
		sender: sender,
	}
}

// SendEmail sends a single HTML email.
func (es *EmailService) SendEmail(toEmail, subject, htmlBody string) error {
	_, err := es.client.SendEmail(postmark.Email{
		From:     es.sender,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlBody,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendOTPEmail delivers the one-time verification code for a registration or
// resend. The code is valid for one hour.
func (es *EmailService) SendOTPEmail(toEmail, otp string) error {
	subject := "Verify your GreenCart Email"
	htmlBody := fmt.Sprintf(`
        <div style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
            <h2 style="color: #4CAF50;">GreenCart Email Verification</h2>
            <p>Thank you for registering with GreenCart!</p>
            <p>Your One-Time Password (OTP) for email verification is:</p>
            <h3 style="color: #007bff; font-size: 24px; text-align: center; background-color: #f0f0f0; padding: 15px; border-radius: 5px;">
                %s
            </h3>
            <p>This OTP is valid for 1 hour. Please enter it on the verification page to complete your registration.</p>
            <p>If you did not request this, please ignore this email.</p>
            <p>Best regards,<br/>The GreenCart Team</p>
        </div>`, otp)

	return es.SendEmail(toEmail, subject, htmlBody)
}
