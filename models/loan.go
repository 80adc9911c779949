package models

import (
	"math"
	"time"

	"toolbank/apperr"
)

const LoanTable = "loans"

type Loan struct {
	ID         int64      `gorm:"primaryKey" json:"id"`
	NeighborID int64      `gorm:"index;not null" json:"neighborId"`
	ToolID     int64      `gorm:"index;not null" json:"toolId"`
	LoanDate   time.Time  `gorm:"index;not null" json:"loanDate"`
	ReturnDate *time.Time `gorm:"index" json:"returnDate,omitempty"`

	Observations *string   `gorm:"type:text" json:"observations,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (Loan) TableName() string { return LoanTable }

func (l *Loan) Validate() Validation {
	var v Validation
	if l.NeighborID <= 0 {
		v.add("neighbor id is required")
	}
	if l.ToolID <= 0 {
		v.add("tool id is required")
	}
	if l.ReturnDate != nil && !l.LoanDate.IsZero() && l.ReturnDate.Before(l.LoanDate) {
		v.add("return date cannot be before loan date")
	}
	return v
}

// IsActive reports whether the loan is still open.
func (l *Loan) IsActive() bool { return l.ReturnDate == nil }

// MarkReturned closes the loan at the given moment.
func (l *Loan) MarkReturned(at time.Time) error {
	if !l.IsActive() {
		return apperr.Newf(apperr.AlreadyReturned, "loan %d was already returned", l.ID)
	}
	l.ReturnDate = &at
	return nil
}

// DurationDays is ceil((returnDate or now) - loanDate) in whole days. Used
// for display only.
func (l *Loan) DurationDays(now time.Time) int {
	end := now
	if l.ReturnDate != nil {
		end = *l.ReturnDate
	}
	return int(math.Ceil(end.Sub(l.LoanDate).Hours() / 24))
}

// LoanRow is the denormalized read model used for listings.
type LoanRow struct {
	ID           int64      `json:"id"`
	NeighborID   int64      `json:"neighborId"`
	ToolID       int64      `json:"toolId"`
	LoanDate     time.Time  `json:"loanDate"`
	ReturnDate   *time.Time `json:"returnDate,omitempty"`
	Observations *string    `json:"observations,omitempty"`
	NeighborName string     `json:"neighborName"`
	ToolName     string     `json:"toolName"`
	ToolImageURL *string    `json:"toolImageUrl,omitempty"`
}

func (r LoanRow) IsActive() bool { return r.ReturnDate == nil }
