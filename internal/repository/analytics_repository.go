package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/nurpe/freelance-market/internal/model"
)

type AnalyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// ProfessionTotals sums paid job prices on terminated contracts per contractor profession.
func (r *AnalyticsRepository) ProfessionTotals(ctx context.Context, from, to time.Time) ([]model.ProfessionTotal, error) {
	rows := []model.ProfessionTotal{}
	if err := r.db.WithContext(ctx).Raw(`
		SELECT
			p.profession,
			COALESCE(SUM(j.price), 0) AS total
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		JOIN profiles p ON p.id = c.contractor_id
		WHERE c.status = 'terminated'
			AND j.paid IS TRUE
			AND j.payment_date >= ?
			AND j.payment_date <= ?
		GROUP BY p.profession
		ORDER BY p.profession ASC
	`, from, to).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ClientTotals sums paid job prices on terminated contracts per client profile.
func (r *AnalyticsRepository) ClientTotals(ctx context.Context, from, to time.Time) ([]model.ClientTotal, error) {
	rows := []model.ClientTotal{}
	if err := r.db.WithContext(ctx).Raw(`
		SELECT
			p.id,
			TRIM(p.first_name || ' ' || p.last_name) AS full_name,
			COALESCE(SUM(j.price), 0) AS paid
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		JOIN profiles p ON p.id = c.client_id
		WHERE c.status = 'terminated'
			AND j.paid IS TRUE
			AND j.payment_date >= ?
			AND j.payment_date <= ?
		GROUP BY p.id, p.first_name, p.last_name
		ORDER BY p.id ASC
	`, from, to).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
