package models

import (
	"regexp"
	"strings"
	"time"
)

const NeighborTable = "neighbors"

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[0-9+\-\s()]+$`)
)

const (
	emailViolation = "email is not a valid address"
	phoneViolation = "phone may only contain digits, spaces and + - ( )"
)

type Neighbor struct {
	ID       int64   `gorm:"primaryKey" json:"id"`
	FullName string  `gorm:"size:200;not null" json:"fullName"`
	Document string  `gorm:"size:60;not null;uniqueIndex" json:"document"`
	Phone    *string `gorm:"size:40" json:"phone,omitempty"`
	Email    *string `gorm:"size:200" json:"email,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Neighbor) TableName() string { return NeighborTable }

// Validate checks shape only; document uniqueness needs the store.
func (n *Neighbor) Validate() Validation {
	var v Validation
	if strings.TrimSpace(n.FullName) == "" {
		v.add("full name is required")
	}
	if strings.TrimSpace(n.Document) == "" {
		v.add("document is required")
	}
	if n.Email != nil {
		if msg := CheckEmail(*n.Email); msg != "" {
			v.add(msg)
		}
	}
	if n.Phone != nil {
		if msg := CheckPhone(*n.Phone); msg != "" {
			v.add(msg)
		}
	}
	return v
}

// CheckEmail returns a violation message, or "" when the value is blank or
// well formed.
func CheckEmail(email string) string {
	if strings.TrimSpace(email) == "" || emailPattern.MatchString(email) {
		return ""
	}
	return emailViolation
}

// CheckPhone returns a violation message, or "" when the value is blank or
// well formed.
func CheckPhone(phone string) string {
	if strings.TrimSpace(phone) == "" || phonePattern.MatchString(phone) {
		return ""
	}
	return phoneViolation
}
