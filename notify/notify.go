// Package notify tells citizens about progress on their complaints.
package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"fixmyarea-be/models"
)

// Notifier delivers complaint notifications.
type Notifier interface {
	ComplaintResolved(ctx context.Context, citizen *models.User, complaint *models.Complaint, note string) error
}

// SendGridNotifier sends email through SendGrid.
type SendGridNotifier struct {
	client   *sendgrid.Client
	fromMail string
	fromName string
	log      *zap.Logger
}

func NewSendGridNotifier(apiKey, fromMail, fromName string, log *zap.Logger) *SendGridNotifier {
	return &SendGridNotifier{
		client:   sendgrid.NewSendClient(apiKey),
		fromMail: fromMail,
		fromName: fromName,
		log:      log,
	}
}

// ComplaintResolved emails the citizen. Citizens without an email are skipped.
func (n *SendGridNotifier) ComplaintResolved(ctx context.Context, citizen *models.User, complaint *models.Complaint, note string) error {
	if citizen == nil || citizen.Email == "" {
		return nil
	}

	message := ResolvedMessage(n.fromName, n.fromMail, citizen, complaint, note)
	response, err := n.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid error: %w", err)
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}

	n.log.Info("Resolution email sent",
		zap.String("complaintId", complaint.ID.Hex()),
		zap.String("userId", citizen.ID.Hex()))
	return nil
}

// ResolvedMessage builds the resolution email.
func ResolvedMessage(fromName, fromMail string, citizen *models.User, complaint *models.Complaint, note string) *mail.SGMailV3 {
	from := mail.NewEmail(fromName, fromMail)
	to := mail.NewEmail(citizen.Name, citizen.Email)
	subject := fmt.Sprintf("Your complaint %q has been resolved", complaint.Title)

	plain := fmt.Sprintf("Hello %s,\n\nYour complaint %q at %s has been marked as resolved.\n\nWorker note: %s\n\nThank you for helping fix your area.",
		citizen.Name, complaint.Title, complaint.Address, note)
	rich := fmt.Sprintf("<p>Hello %s,</p><p>Your complaint <strong>%s</strong> at %s has been marked as resolved.</p><p>Worker note: %s</p>",
		html.EscapeString(citizen.Name), html.EscapeString(complaint.Title), html.EscapeString(complaint.Address), html.EscapeString(note))
	if complaint.PhotoURL != "" {
		rich += fmt.Sprintf(`<p><img src="%s" alt="complaint photo" width="320"></p>`, html.EscapeString(complaint.PhotoURL))
	}

	return mail.NewSingleEmail(from, subject, to, plain, rich)
}

// Nop drops every notification.
type Nop struct{}

func (Nop) ComplaintResolved(ctx context.Context, citizen *models.User, complaint *models.Complaint, note string) error {
	return nil
}
