package db

import (
	"context"
	"fmt"
	"time"

	"toolbank/models"
	"toolbank/ports"

	"gorm.io/gorm"
)

type loanRepo struct{ db *gorm.DB }

// rows joins the names for listings. LEFT JOIN keeps history readable after
// a neighbor or tool is deleted.
func (r *loanRepo) rows(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table(models.LoanTable + " AS l").
		Select(`l.id, l.neighbor_id, l.tool_id, l.loan_date, l.return_date, l.observations,
		        COALESCE(n.full_name, '') AS neighbor_name,
		        COALESCE(t.name, '') AS tool_name,
		        t.image_url AS tool_image_url`).
		Joins(fmt.Sprintf("LEFT JOIN %s n ON n.id = l.neighbor_id", models.NeighborTable)).
		Joins(fmt.Sprintf("LEFT JOIN %s t ON t.id = l.tool_id", models.ToolTable)).
		Order("l.loan_date DESC").
		Order("l.id DESC")
}

func (r *loanRepo) FindAll(ctx context.Context) ([]models.LoanRow, error) {
	var out []models.LoanRow
	err := r.rows(ctx).Scan(&out).Error
	return out, translate(err, "list loans")
}

func (r *loanRepo) FindActive(ctx context.Context) ([]models.LoanRow, error) {
	var out []models.LoanRow
	err := r.rows(ctx).Where("l.return_date IS NULL").Scan(&out).Error
	return out, translate(err, "list active loans")
}

func (r *loanRepo) FindByNeighbor(ctx context.Context, neighborID int64) ([]models.LoanRow, error) {
	var out []models.LoanRow
	err := r.rows(ctx).Where("l.neighbor_id = ?", neighborID).Scan(&out).Error
	return out, translate(err, "list loans of neighbor")
}

func (r *loanRepo) FindByTool(ctx context.Context, toolID int64) ([]models.LoanRow, error) {
	var out []models.LoanRow
	err := r.rows(ctx).Where("l.tool_id = ?", toolID).Scan(&out).Error
	return out, translate(err, "list loans of tool")
}

func (r *loanRepo) FindByID(ctx context.Context, id int64) (*models.Loan, error) {
	var l models.Loan
	if err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		return nil, translate(err, "find loan")
	}
	return &l, nil
}

func (r *loanRepo) FindActiveByTool(ctx context.Context, toolID int64) (*models.Loan, error) {
	var l models.Loan
	if err := r.db.WithContext(ctx).
		Where("tool_id = ? AND return_date IS NULL", toolID).
		First(&l).Error; err != nil {
		return nil, translate(err, "find active loan of tool")
	}
	return &l, nil
}

func (r *loanRepo) Save(ctx context.Context, l *models.Loan) error {
	return translate(r.db.WithContext(ctx).Create(l).Error, "create loan")
}

func (r *loanRepo) Update(ctx context.Context, id int64, patch models.LoanPatch) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Loan{}).
		Where("id = ?", id).
		Updates(patch.Columns())
	return res.RowsAffected, translate(res.Error, "update loan")
}

func (r *loanRepo) MarkReturned(ctx context.Context, id int64, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Loan{}).
		Where("id = ? AND return_date IS NULL", id).
		Update("return_date", at)
	if res.Error != nil {
		return translate(res.Error, "return loan")
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Loan{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return translate(err, "return loan")
	}
	if n == 0 {
		return fmt.Errorf("return loan %d: %w", id, ports.ErrNotFound)
	}
	return fmt.Errorf("return loan %d: %w", id, ports.ErrNotActive)
}

func (r *loanRepo) Delete(ctx context.Context, id int64) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.Loan{}, "id = ?", id)
	return res.RowsAffected, translate(res.Error, "delete loan")
}
