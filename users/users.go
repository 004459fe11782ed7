package users

import (
	"fmt"
	"time"

	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// RoleType represents an application-level role attached to an account
type RoleType string

const (
	RoleAdmin   RoleType = "admin"   // Can manage accounts and service content
	RoleStudent RoleType = "student" // Regular student account
	RolePartner RoleType = "partner" // External partner (job/scholarship posters)
)

// Profile holds the presentational fields created alongside every account.
// The wider application owns richer profile data; the auth subsystem only
// needs enough to build the user summary returned with each token pair.
type Profile struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type User struct {
	ID           string    `json:"id,omitempty"`          // Unique identifier for the user
	Email        string    `json:"email,omitempty"`       // User's email address, unique per account
	PasswordHash string    `json:"-"`                     // Hashed version of the user's password - never serialize
	Role         RoleType  `json:"role,omitempty"`        // Application role
	Profile      Profile   `json:"profile"`               // Default profile created with the account
	DateJoined   time.Time `json:"date_joined,omitempty"` // Date and time when the user registered
	LastLogin    time.Time `json:"last_login,omitempty"`  // Last time the user logged in

	Verified bool `json:"verified,omitempty"` // Verified, has the user confirmed their email address
	Blocked  bool `json:"blocked,omitempty"`  // Blocked, account deactivated by an administrator
}

// Summary is the normalized user shape returned alongside issued tokens.
type Summary struct {
	ID      string   `json:"id"`
	Email   string   `json:"email"`
	Role    RoleType `json:"role"`
	Profile Profile  `json:"profile"`
}

// Summary returns the token-response view of the user.
func (u *User) Summary() Summary {
	return Summary{
		ID:      u.ID,
		Email:   u.Email,
		Role:    u.Role,
		Profile: u.Profile,
	}
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a candidate password against a stored bcrypt
// hash. bcrypt's comparison is constant-time over the derived key.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
