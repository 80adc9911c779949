package models

import (
	"strings"
	"time"
)

const ToolTable = "tools"

type Condition string

const (
	ConditionNew  Condition = "new"
	ConditionGood Condition = "good"
	ConditionFair Condition = "fair"
	ConditionPoor Condition = "poor"
)

// Conditions lists the accepted values in display order.
var Conditions = []Condition{ConditionNew, ConditionGood, ConditionFair, ConditionPoor}

// NormalizeCondition trims and lowercases raw input. The result is not
// guaranteed to be valid; see Condition.Valid.
func NormalizeCondition(raw string) Condition {
	return Condition(strings.ToLower(strings.TrimSpace(raw)))
}

func (c Condition) Valid() bool {
	for _, v := range Conditions {
		if c == v {
			return true
		}
	}
	return false
}

func conditionList() string {
	names := make([]string, len(Conditions))
	for i, c := range Conditions {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

// ConditionViolation is the message reported for an out-of-enum condition.
func ConditionViolation() string {
	return "condition must be one of: " + conditionList()
}

type Tool struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Category  string    `gorm:"size:120;not null;index" json:"category"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	Condition Condition `gorm:"size:20;not null" json:"condition"`
	// Cached projection of "no active loan references this tool".
	Available bool      `gorm:"not null" json:"available"`
	Notes     *string   `gorm:"type:text" json:"notes,omitempty"`
	ImageURL  *string   `gorm:"size:500" json:"imageUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Tool) TableName() string { return ToolTable }

// NewTool builds an available tool with its condition canonicalized.
func NewTool(category, name, condition string) *Tool {
	return &Tool{
		Category:  category,
		Name:      name,
		Condition: NormalizeCondition(condition),
		Available: true,
	}
}

func (t *Tool) Validate() Validation {
	var v Validation
	if strings.TrimSpace(t.Category) == "" {
		v.add("category is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		v.add("name is required")
	}
	if strings.TrimSpace(string(t.Condition)) == "" {
		v.add("condition is required")
	} else if !NormalizeCondition(string(t.Condition)).Valid() {
		v.add(ConditionViolation())
	}
	return v
}

func (t *Tool) MarkAvailable()    { t.Available = true }
func (t *Tool) MarkUnavailable()  { t.Available = false }
func (t *Tool) IsAvailable() bool { return t.Available }
