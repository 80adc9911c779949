package db

import (
	"context"
	"fmt"

	"toolbank/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type toolRepo struct{ db *gorm.DB }

var activeLoanOfTool = fmt.Sprintf(
	"EXISTS (SELECT 1 FROM %s l WHERE l.tool_id = %s.id AND l.return_date IS NULL)",
	models.LoanTable, models.ToolTable,
)

func (r *toolRepo) FindAll(ctx context.Context) ([]models.Tool, error) {
	var tools []models.Tool
	err := r.db.WithContext(ctx).Order("name ASC").Order("id ASC").Find(&tools).Error
	return tools, translate(err, "list tools")
}

func (r *toolRepo) FindByID(ctx context.Context, id int64) (*models.Tool, error) {
	var t models.Tool
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, translate(err, "find tool")
	}
	return &t, nil
}

// sqlite ignores the locking clause; the single connection serializes writers there.
func (r *toolRepo) FindByIDForUpdate(ctx context.Context, id int64) (*models.Tool, error) {
	var t models.Tool
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&t, "id = ?", id).Error; err != nil {
		return nil, translate(err, "lock tool")
	}
	return &t, nil
}

func (r *toolRepo) Save(ctx context.Context, t *models.Tool) error {
	return translate(r.db.WithContext(ctx).Create(t).Error, "create tool")
}

func (r *toolRepo) Update(ctx context.Context, id int64, patch models.ToolPatch) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Tool{}).
		Where("id = ?", id).
		Updates(patch.Columns())
	return res.RowsAffected, translate(res.Error, "update tool")
}

func (r *toolRepo) SetAvailability(ctx context.Context, id int64, available bool) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Tool{}).
		Where("id = ?", id).
		Update("available", available)
	return res.RowsAffected, translate(res.Error, "set tool availability")
}

func (r *toolRepo) Delete(ctx context.Context, id int64) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.Tool{}, "id = ?", id)
	return res.RowsAffected, translate(res.Error, "delete tool")
}

func (r *toolRepo) HasActiveLoans(ctx context.Context, id int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Loan{}).
		Where("tool_id = ? AND return_date IS NULL", id).
		Count(&n).Error
	return n > 0, translate(err, "count active loans of tool")
}

func (r *toolRepo) ReconcileAvailability(ctx context.Context) ([]int64, int64, error) {
	var fixed []int64
	var idle int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Tool{}).
			Where("available = ?", true).
			Where(activeLoanOfTool).
			Order("id ASC").
			Pluck("id", &fixed).Error; err != nil {
			return err
		}
		if len(fixed) > 0 {
			// a loan returned since the scan must not be flipped
			if err := tx.Model(&models.Tool{}).
				Where("id IN ?", fixed).
				Where(activeLoanOfTool).
				Update("available", false).Error; err != nil {
				return err
			}
			var repaired []int64
			if err := tx.Model(&models.Tool{}).
				Where("id IN ?", fixed).
				Where("available = ?", false).
				Order("id ASC").
				Pluck("id", &repaired).Error; err != nil {
				return err
			}
			fixed = repaired
		}
		// unavailable without a loan: manual out of service, left alone
		return tx.Model(&models.Tool{}).
			Where("available = ?", false).
			Where("NOT " + activeLoanOfTool).
			Count(&idle).Error
	})
	if err != nil {
		return nil, 0, translate(err, "reconcile availability")
	}
	return fixed, idle, nil
}
