package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"fixmyarea-be/apperrors"
	"fixmyarea-be/mocks"
	"fixmyarea-be/models"
	"fixmyarea-be/repository"
	authUtils "fixmyarea-be/utils"
)

func newAuthService(t *testing.T) (*AuthService, *mocks.MockUserRepository, *authUtils.TokenService) {
	t.Helper()
	users := mocks.NewMockUserRepository()
	tokens, err := authUtils.NewTokenService("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	svc := NewAuthService(users, tokens, RegistrationKeys{Admin: "admin-key", Worker: "worker-key"}, zap.NewNop())
	return svc, users, tokens
}

func TestRegisterDefaultsToCitizen(t *testing.T) {
	svc, _, _ := newAuthService(t)

	user, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Asha",
		Phone:    "9876543210",
		Password: "secret1",
		DOB:      "1990-04-12",
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.Role != models.RoleCitizen {
		t.Errorf("expected citizen, got %s", user.Role)
	}
	if user.PasswordHash == "" || user.PasswordHash == "secret1" {
		t.Error("expected password to be hashed")
	}
	if user.DOB == nil || user.DOB.Year() != 1990 {
		t.Errorf("expected dob parsed, got %v", user.DOB)
	}
}

func TestRegisterRules(t *testing.T) {
	tests := []struct {
		name  string
		input RegisterInput
		kind  error
	}{
		{
			name:  "short password",
			input: RegisterInput{Name: "A", Phone: "9876543210", Password: "123"},
			kind:  apperrors.ErrValidation,
		},
		{
			name:  "missing phone",
			input: RegisterInput{Name: "A", Password: "secret1"},
			kind:  apperrors.ErrValidation,
		},
		{
			name:  "unknown role",
			input: RegisterInput{Name: "A", Phone: "9876543210", Password: "secret1", Role: "mayor"},
			kind:  apperrors.ErrValidation,
		},
		{
			name:  "admin without key",
			input: RegisterInput{Name: "A", Phone: "9876543210", Password: "secret1", Role: "admin"},
			kind:  apperrors.ErrInvalidRegistrationKey,
		},
		{
			name:  "worker with admin key",
			input: RegisterInput{Name: "A", Phone: "9876543210", Password: "secret1", Role: "worker", RegistrationKey: "admin-key"},
			kind:  apperrors.ErrInvalidRegistrationKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newAuthService(t)
			_, err := svc.Register(context.Background(), tt.input)
			assertKind(t, err, tt.kind)
		})
	}
}

func TestRegisterWorkerWithKey(t *testing.T) {
	svc, _, _ := newAuthService(t)

	user, err := svc.Register(context.Background(), RegisterInput{
		Name: "Ravi", Phone: "9000000001", Password: "secret1", Role: "worker", RegistrationKey: "worker-key",
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.Role != models.RoleWorker {
		t.Errorf("expected worker, got %s", user.Role)
	}
}

func TestRegisterDuplicatePhone(t *testing.T) {
	svc, _, _ := newAuthService(t)
	input := RegisterInput{Name: "Asha", Phone: "9876543210", Password: "secret1"}
	if _, err := svc.Register(context.Background(), input); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := svc.Register(context.Background(), input)

	assertKind(t, err, apperrors.ErrConflict)
}

func TestRegisterRaceOnUniqueIndex(t *testing.T) {
	svc, users, _ := newAuthService(t)
	users.CreateFunc = func(ctx context.Context, user *models.User) error {
		return fmt.Errorf("insert user: %w", repository.ErrDuplicate)
	}

	_, err := svc.Register(context.Background(), RegisterInput{Name: "Asha", Phone: "9876543210", Password: "secret1"})

	assertKind(t, err, apperrors.ErrConflict)
}

func TestLogin(t *testing.T) {
	svc, _, tokens := newAuthService(t)
	registered, err := svc.Register(context.Background(), RegisterInput{Name: "Asha", Phone: "9876543210", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	result, err := svc.Login(context.Background(), LoginInput{Phone: "9876543210", Password: "secret1", Role: "citizen"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.User.ID != registered.ID.Hex() || result.User.Role != models.RoleCitizen || result.User.Name != "Asha" {
		t.Errorf("unexpected session user %+v", result.User)
	}

	identity, err := tokens.Verify(result.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if identity.UserID != registered.ID || identity.Role != models.RoleCitizen {
		t.Errorf("unexpected identity %+v", identity)
	}
}

func TestLoginFailuresAreInvalidCredential(t *testing.T) {
	svc, _, _ := newAuthService(t)
	if _, err := svc.Register(context.Background(), RegisterInput{Name: "Asha", Phone: "9876543210", Password: "secret1"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	attempts := map[string]LoginInput{
		"unknown phone":  {Phone: "1111111111", Password: "secret1", Role: "citizen"},
		"wrong password": {Phone: "9876543210", Password: "wrong-pass", Role: "citizen"},
		"wrong role":     {Phone: "9876543210", Password: "secret1", Role: "admin"},
	}
	for name, input := range attempts {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), input)
			assertKind(t, err, apperrors.ErrInvalidCredential)
		})
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, _, _ := newAuthService(t)
	user, err := svc.Register(context.Background(), RegisterInput{Name: "Asha", Phone: "9876543210", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	identity := models.Identity{UserID: user.ID, Role: user.Role, Name: user.Name}

	village, dob := "Hosur", "1991-01-02"
	updated, err := svc.UpdateProfile(context.Background(), identity, ProfileInput{Village: &village, DOB: &dob})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.Village != "Hosur" || updated.Phone != "9876543210" || updated.Role != models.RoleCitizen {
		t.Errorf("unexpected profile %+v", updated)
	}

	_, err = svc.UpdateProfile(context.Background(), identity, ProfileInput{})
	assertKind(t, err, apperrors.ErrValidation)

	badGender := "Robot"
	_, err = svc.UpdateProfile(context.Background(), identity, ProfileInput{Gender: &badGender})
	assertKind(t, err, apperrors.ErrValidation)

	profile, err := svc.Profile(context.Background(), identity)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.Village != "Hosur" {
		t.Errorf("expected stored village, got %q", profile.Village)
	}
}
