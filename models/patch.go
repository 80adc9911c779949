package models

import "time"

// Patches carry partial updates: a nil field means "leave unchanged".

type ToolPatch struct {
	Category  *string
	Name      *string
	Condition *Condition
	Available *bool
	Notes     *string
	ImageURL  *string
}

// Columns maps the set fields to column names.
func (p ToolPatch) Columns() map[string]any {
	cols := map[string]any{}
	if p.Category != nil {
		cols["category"] = *p.Category
	}
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.Condition != nil {
		cols["condition"] = *p.Condition
	}
	if p.Available != nil {
		cols["available"] = *p.Available
	}
	if p.Notes != nil {
		cols["notes"] = *p.Notes
	}
	if p.ImageURL != nil {
		cols["image_url"] = *p.ImageURL
	}
	return cols
}

type NeighborPatch struct {
	FullName *string
	Document *string
	Phone    *string
	Email    *string
}

func (p NeighborPatch) Columns() map[string]any {
	cols := map[string]any{}
	if p.FullName != nil {
		cols["full_name"] = *p.FullName
	}
	if p.Document != nil {
		cols["document"] = *p.Document
	}
	if p.Phone != nil {
		cols["phone"] = *p.Phone
	}
	if p.Email != nil {
		cols["email"] = *p.Email
	}
	return cols
}

type LoanPatch struct {
	NeighborID   *int64
	ToolID       *int64
	LoanDate     *time.Time
	ReturnDate   *time.Time
	Observations *string
}

func (p LoanPatch) Columns() map[string]any {
	cols := map[string]any{}
	if p.NeighborID != nil {
		cols["neighbor_id"] = *p.NeighborID
	}
	if p.ToolID != nil {
		cols["tool_id"] = *p.ToolID
	}
	if p.LoanDate != nil {
		cols["loan_date"] = *p.LoanDate
	}
	if p.ReturnDate != nil {
		cols["return_date"] = *p.ReturnDate
	}
	if p.Observations != nil {
		cols["observations"] = *p.Observations
	}
	return cols
}

// Apply returns a copy of l with the patch applied.
func (p LoanPatch) Apply(l Loan) Loan {
	if p.NeighborID != nil {
		l.NeighborID = *p.NeighborID
	}
	if p.ToolID != nil {
		l.ToolID = *p.ToolID
	}
	if p.LoanDate != nil {
		l.LoanDate = *p.LoanDate
	}
	if p.ReturnDate != nil {
		rd := *p.ReturnDate
		l.ReturnDate = &rd
	}
	if p.Observations != nil {
		l.Observations = p.Observations
	}
	return l
}
