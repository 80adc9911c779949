// Package ports declares the storage and coordination contracts the
// services depend on. The db package implements them over gorm; tests may
// wrap them.
package ports

import (
	"context"
	"errors"
	"time"

	"toolbank/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("unique constraint violated")
	// ErrNotActive is returned when closing a loan that already has a
	// return date.
	ErrNotActive = errors.New("loan is not active")
)

type ToolStore interface {
	FindAll(ctx context.Context) ([]models.Tool, error)
	FindByID(ctx context.Context, id int64) (*models.Tool, error)
	// FindByIDForUpdate locks the row until the surrounding unit of work
	// ends. Outside a unit of work it behaves like FindByID.
	FindByIDForUpdate(ctx context.Context, id int64) (*models.Tool, error)
	Save(ctx context.Context, t *models.Tool) error
	Update(ctx context.Context, id int64, patch models.ToolPatch) (int64, error)
	SetAvailability(ctx context.Context, id int64, available bool) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
	HasActiveLoans(ctx context.Context, id int64) (bool, error)
	// ReconcileAvailability marks unavailable every tool flagged available
	// while an active loan references it. It returns the ids it fixed and
	// the number of tools flagged unavailable with no active loan.
	ReconcileAvailability(ctx context.Context) (fixed []int64, idle int64, err error)
}

type NeighborStore interface {
	FindAll(ctx context.Context) ([]models.Neighbor, error)
	FindByID(ctx context.Context, id int64) (*models.Neighbor, error)
	FindByDocument(ctx context.Context, document string) (*models.Neighbor, error)
	Save(ctx context.Context, n *models.Neighbor) error
	Update(ctx context.Context, id int64, patch models.NeighborPatch) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
	HasActiveLoans(ctx context.Context, id int64) (bool, error)
}

type LoanStore interface {
	FindAll(ctx context.Context) ([]models.LoanRow, error)
	FindByID(ctx context.Context, id int64) (*models.Loan, error)
	FindActive(ctx context.Context) ([]models.LoanRow, error)
	FindActiveByTool(ctx context.Context, toolID int64) (*models.Loan, error)
	FindByNeighbor(ctx context.Context, neighborID int64) ([]models.LoanRow, error)
	FindByTool(ctx context.Context, toolID int64) ([]models.LoanRow, error)
	Save(ctx context.Context, l *models.Loan) error
	Update(ctx context.Context, id int64, patch models.LoanPatch) (int64, error)
	// MarkReturned stamps the return date only if the loan is still open.
	MarkReturned(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) (int64, error)
}

// Stores groups the three stores bound to one transaction.
type Stores interface {
	Tools() ToolStore
	Neighbors() NeighborStore
	Loans() LoanStore
}

// UnitOfWork runs fn against stores sharing a single transaction. A non-nil
// error from fn rolls everything back.
type UnitOfWork interface {
	Stores
	Do(ctx context.Context, fn func(Stores) error) error
}

// Locker serializes work on a key across requests (and processes, when
// backed by redis). The returned release func must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}
