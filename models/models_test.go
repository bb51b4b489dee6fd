package models

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseCategory(t *testing.T) {
	for _, c := range Categories {
		got, ok := ParseCategory(string(c))
		if !ok || got != c {
			t.Errorf("expected %q to parse", c)
		}
	}

	for _, bad := range []string{"", "roads", "Potholes", "Stray dogs"} {
		if _, ok := ParseCategory(bad); ok {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}

func TestWorkerStatuses(t *testing.T) {
	if IsWorkerStatus(StatusOpen) {
		t.Error("workers must not be able to set a complaint back to Open")
	}
	if !IsWorkerStatus(StatusInProgress) || !IsWorkerStatus(StatusResolved) {
		t.Error("expected In Progress and Resolved to be worker statuses")
	}
	if _, ok := ParseStatus("Closed"); ok {
		t.Error("expected unknown status to be rejected")
	}
}

func TestParseRole(t *testing.T) {
	if _, ok := ParseRole("superuser"); ok {
		t.Error("expected unknown role to be rejected")
	}
	if r, ok := ParseRole("worker"); !ok || r != RoleWorker {
		t.Errorf("expected worker, got %q", r)
	}
}

func TestPasswordHashing(t *testing.T) {
	u := &User{}
	if err := u.SetPassword("secret123"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if u.PasswordHash == "secret123" {
		t.Fatal("password stored in plain text")
	}
	if !u.ComparePassword("secret123") {
		t.Error("expected matching password to compare true")
	}
	if u.ComparePassword("wrong") {
		t.Error("expected wrong password to compare false")
	}
}

func TestHasUpvote(t *testing.T) {
	voter := primitive.NewObjectID()
	c := &Complaint{Upvotes: []primitive.ObjectID{primitive.NewObjectID(), voter}}

	if !c.HasUpvote(voter) {
		t.Error("expected voter to be found")
	}
	if c.HasUpvote(primitive.NewObjectID()) {
		t.Error("expected stranger not to be found")
	}
}

func TestProfileUpdateEmpty(t *testing.T) {
	if !(ProfileUpdate{}).Empty() {
		t.Error("zero update should be empty")
	}
	village := "Rampur"
	if (ProfileUpdate{Village: &village}).Empty() {
		t.Error("update with a field should not be empty")
	}
}
