// Package services holds the business rules for accounts and complaints.
// Every operation receives the caller's identity explicitly.
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"go.uber.org/zap"

	"fixmyarea-be/apperrors"
	"fixmyarea-be/models"
	"fixmyarea-be/repository"
	authUtils "fixmyarea-be/utils"
)

const dateLayout = "2006-01-02"

type RegisterInput struct {
	Name            string `json:"name" validate:"required,max=100"`
	Phone           string `json:"phone" validate:"required,min=6,max=20"`
	Email           string `json:"email" validate:"omitempty,email"`
	Password        string `json:"password" validate:"required,min=6"`
	Role            string `json:"role" validate:"omitempty,oneof=citizen admin worker"`
	RegistrationKey string `json:"registrationKey"`
	DOB             string `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	Gender          string `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	State           string `json:"state" validate:"max=100"`
	District        string `json:"district" validate:"max=100"`
	Village         string `json:"village" validate:"max=100"`
	Pincode         string `json:"pincode" validate:"omitempty,numeric,max=10"`
}

type LoginInput struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=citizen admin worker"`
}

type ProfileInput struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=100"`
	Email    *string `json:"email" validate:"omitempty,email"`
	DOB      *string `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	Gender   *string `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	State    *string `json:"state" validate:"omitempty,max=100"`
	District *string `json:"district" validate:"omitempty,max=100"`
	Village  *string `json:"village" validate:"omitempty,max=100"`
	Pincode  *string `json:"pincode" validate:"omitempty,numeric,max=10"`
}

// SessionUser is the public part of the user returned on login.
type SessionUser struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Role models.Role `json:"role"`
}

type LoginResult struct {
	Token string      `json:"token"`
	User  SessionUser `json:"user"`
}

// RegistrationKeys are the secrets required to self-register privileged roles.
type RegistrationKeys struct {
	Admin  string
	Worker string
}

type AuthService struct {
	users  repository.UserRepository
	tokens *authUtils.TokenService
	keys   RegistrationKeys
	log    *zap.Logger
	now    func() time.Time
}

func NewAuthService(users repository.UserRepository, tokens *authUtils.TokenService, keys RegistrationKeys, log *zap.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, keys: keys, log: log, now: time.Now}
}

// Register creates an account. Admin and worker accounts need the matching
// registration key.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	role := models.RoleCitizen
	if input.Role != "" {
		role, _ = models.ParseRole(input.Role)
	}
	if err := s.checkRegistrationKey(role, input.RegistrationKey); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByPhone(ctx, input.Phone); err == nil {
		return nil, apperrors.Conflict("User already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Storage("Failed to register user", err)
	}

	user := &models.User{
		Name:      input.Name,
		Phone:     input.Phone,
		Email:     input.Email,
		Role:      role,
		Gender:    input.Gender,
		State:     input.State,
		District:  input.District,
		Village:   input.Village,
		Pincode:   input.Pincode,
		CreatedAt: s.now().UTC(),
	}
	if input.DOB != "" {
		dob, _ := time.Parse(dateLayout, input.DOB)
		user.DOB = &dob
	}
	if err := user.SetPassword(input.Password); err != nil {
		return nil, apperrors.Storage("Failed to register user", err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("User already exists")
		}
		return nil, apperrors.Storage("Failed to register user", err)
	}

	s.log.Info("User registered", zap.String("userId", user.ID.Hex()), zap.String("role", string(role)))
	return user, nil
}

func (s *AuthService) checkRegistrationKey(role models.Role, key string) error {
	var expected string
	switch role {
	case models.RoleAdmin:
		expected = s.keys.Admin
	case models.RoleWorker:
		expected = s.keys.Worker
	default:
		return nil
	}
	if !secretsEqual(expected, key) {
		return apperrors.InvalidRegistrationKey("Invalid registration key for role " + string(role))
	}
	return nil
}

// Login checks the credentials against the account registered under the phone
// number. Unknown phone, wrong role and wrong password are indistinguishable.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	user, err := s.users.FindByPhone(ctx, input.Phone)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.InvalidCredential("Invalid credentials")
		}
		return nil, apperrors.Storage("Failed to log in", err)
	}
	if string(user.Role) != input.Role || !user.ComparePassword(input.Password) {
		return nil, apperrors.InvalidCredential("Invalid credentials")
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperrors.Storage("Failed to issue token", err)
	}

	return &LoginResult{
		Token: token,
		User:  SessionUser{ID: user.ID.Hex(), Name: user.Name, Role: user.Role},
	}, nil
}

func (s *AuthService) Profile(ctx context.Context, identity models.Identity) (*models.User, error) {
	user, err := s.users.FindByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("User")
		}
		return nil, apperrors.Storage("Failed to load profile", err)
	}
	return user, nil
}

// UpdateProfile changes the caller's own profile. Phone and role cannot change.
func (s *AuthService) UpdateProfile(ctx context.Context, identity models.Identity, input ProfileInput) (*models.User, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	update := models.ProfileUpdate{
		Name:     input.Name,
		Email:    input.Email,
		Gender:   input.Gender,
		State:    input.State,
		District: input.District,
		Village:  input.Village,
		Pincode:  input.Pincode,
	}
	if input.DOB != nil {
		dob, _ := time.Parse(dateLayout, *input.DOB)
		update.DOB = &dob
	}
	if update.Empty() {
		return nil, apperrors.Validation("No profile fields to update", nil)
	}

	user, err := s.users.UpdateProfile(ctx, identity.UserID, update)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("User")
		}
		return nil, apperrors.Storage("Failed to update profile", err)
	}
	return user, nil
}

// secretsEqual compares in constant time. An unset secret never matches.
func secretsEqual(expected, given string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(given)) == 1
}
