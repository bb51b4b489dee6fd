package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// Role is fixed when an account is registered.
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleAdmin   Role = "admin"
	RoleWorker  Role = "worker"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleCitizen, RoleAdmin, RoleWorker:
		return Role(s), true
	}
	return "", false
}

// Gender values accepted on a profile.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name         string             `bson:"name" json:"name"`
	Phone        string             `bson:"phone" json:"phone"`
	Email        string             `bson:"email,omitempty" json:"email,omitempty"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	DOB          *time.Time         `bson:"dob,omitempty" json:"dob,omitempty"`
	Gender       string             `bson:"gender,omitempty" json:"gender,omitempty"`
	State        string             `bson:"state,omitempty" json:"state,omitempty"`
	District     string             `bson:"district,omitempty" json:"district,omitempty"`
	Village      string             `bson:"village,omitempty" json:"village,omitempty"`
	Pincode      string             `bson:"pincode,omitempty" json:"pincode,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// SetPassword stores a bcrypt hash of the plain password.
func (u *User) SetPassword(plain string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashed)
	return nil
}

func (u *User) ComparePassword(candidate string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(candidate))
	return err == nil
}

// ProfileUpdate holds the profile fields a user may change. Nil fields are left as is.
type ProfileUpdate struct {
	Name     *string
	Email    *string
	DOB      *time.Time
	Gender   *string
	State    *string
	District *string
	Village  *string
	Pincode  *string
}

// Empty reports whether the update changes nothing.
func (p ProfileUpdate) Empty() bool {
	return p.Name == nil && p.Email == nil && p.DOB == nil && p.Gender == nil &&
		p.State == nil && p.District == nil && p.Village == nil && p.Pincode == nil
}

// Identity is the authenticated caller, decoded from a session token.
// It is passed by value into every service call.
type Identity struct {
	UserID primitive.ObjectID
	Role   Role
	Name   string
}
