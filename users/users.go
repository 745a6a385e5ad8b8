package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// User is the denormalised account record cached in the session.
// Role specific fields are only populated for the matching role.
type User struct {
	ID        string    `json:"_id,omitempty"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Role      Role      `json:"role,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`

	// customer and serviceCompany
	CompanyName string `json:"companyName,omitempty"`
	ABN         string `json:"abn,omitempty"`

	// siteManager
	SiteIDs []string `json:"siteIds,omitempty"`

	// worker
	Skills     []string `json:"skills,omitempty"`
	HourlyRate float64  `json:"hourlyRate,omitempty"`
	CompanyID  string   `json:"companyId,omitempty"`
}

// DisplayName returns the best available human readable name
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	if u.CompanyName != "" {
		return u.CompanyName
	}
	return u.Email
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasLetter bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsLetter(char) {
			hasLetter = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasLetter {
		return fmt.Errorf("password must contain at least one letter")
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

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
