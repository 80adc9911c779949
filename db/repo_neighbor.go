package db

import (
	"context"

	"toolbank/models"

	"gorm.io/gorm"
)

type neighborRepo struct{ db *gorm.DB }

func (r *neighborRepo) FindAll(ctx context.Context) ([]models.Neighbor, error) {
	var ns []models.Neighbor
	err := r.db.WithContext(ctx).Order("full_name ASC").Order("id ASC").Find(&ns).Error
	return ns, translate(err, "list neighbors")
}

func (r *neighborRepo) FindByID(ctx context.Context, id int64) (*models.Neighbor, error) {
	var n models.Neighbor
	if err := r.db.WithContext(ctx).First(&n, "id = ?", id).Error; err != nil {
		return nil, translate(err, "find neighbor")
	}
	return &n, nil
}

func (r *neighborRepo) FindByDocument(ctx context.Context, document string) (*models.Neighbor, error) {
	var n models.Neighbor
	if err := r.db.WithContext(ctx).Where("document = ?", document).First(&n).Error; err != nil {
		return nil, translate(err, "find neighbor by document")
	}
	return &n, nil
}

func (r *neighborRepo) Save(ctx context.Context, n *models.Neighbor) error {
	return translate(r.db.WithContext(ctx).Create(n).Error, "create neighbor")
}

func (r *neighborRepo) Update(ctx context.Context, id int64, patch models.NeighborPatch) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Neighbor{}).
		Where("id = ?", id).
		Updates(patch.Columns())
	return res.RowsAffected, translate(res.Error, "update neighbor")
}

func (r *neighborRepo) Delete(ctx context.Context, id int64) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.Neighbor{}, "id = ?", id)
	return res.RowsAffected, translate(res.Error, "delete neighbor")
}

func (r *neighborRepo) HasActiveLoans(ctx context.Context, id int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Loan{}).
		Where("neighbor_id = ? AND return_date IS NULL", id).
		Count(&n).Error
	return n > 0, translate(err, "count active loans of neighbor")
}
