package db

import (
	"context"

	"toolbank/ports"

	"gorm.io/gorm"
)

// Repo implements ports.UnitOfWork. Inside Do it is rebound to the
// transaction handle so every store shares it.
type Repo struct{ DB *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{DB: db} }

func (r *Repo) Tools() ports.ToolStore         { return &toolRepo{db: r.DB} }
func (r *Repo) Neighbors() ports.NeighborStore { return &neighborRepo{db: r.DB} }
func (r *Repo) Loans() ports.LoanStore         { return &loanRepo{db: r.DB} }

func (r *Repo) Do(ctx context.Context, fn func(ports.Stores) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repo{DB: tx})
	})
}

var _ ports.UnitOfWork = (*Repo)(nil)
