package notify

import (
	"context"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fixmyarea-be/models"
)

func TestResolvedMessageEscapesContent(t *testing.T) {
	citizen := &models.User{ID: primitive.NewObjectID(), Name: "Asha", Email: "asha@example.com"}
	complaint := &models.Complaint{ID: primitive.NewObjectID(), Title: "<b>Pothole</b>", Address: "Main Road"}

	message := ResolvedMessage("FixMyArea", "noreply@example.com", citizen, complaint, "Filled & levelled")

	if message.Subject != `Your complaint "<b>Pothole</b>" has been resolved` {
		t.Errorf("unexpected subject %q", message.Subject)
	}
	if len(message.Content) != 2 {
		t.Fatalf("expected plain and html content, got %d", len(message.Content))
	}
	rich := message.Content[1].Value
	if strings.Contains(rich, "<b>Pothole</b>") {
		t.Errorf("expected title to be escaped in html body: %s", rich)
	}
	if !strings.Contains(rich, "Filled &amp; levelled") {
		t.Errorf("expected escaped note in html body: %s", rich)
	}
}

func TestNotifierSkipsCitizenWithoutEmail(t *testing.T) {
	n := NewSendGridNotifier("unused", "noreply@example.com", "FixMyArea", nil)
	err := n.ComplaintResolved(context.Background(), &models.User{Name: "No Mail"}, &models.Complaint{}, "done")
	if err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
}
