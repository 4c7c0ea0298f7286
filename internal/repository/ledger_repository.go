package repository

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/freelance-market/internal/model"
)

// ErrJobAlreadyPaid is returned by MarkJobPaid when the job row was already paid.
var ErrJobAlreadyPaid = errors.New("job already paid")

// LedgerTx is the set of operations available inside a balance transaction.
// Locks are taken in a fixed order: job rows first, then profile rows by ascending id.
type LedgerTx interface {
	LockJob(jobID int64) (*model.JobContract, error)
	GetJob(jobID int64) (*model.Job, error)
	LockProfiles(ids ...int64) ([]model.Profile, error)
	AdjustBalance(profileID int64, delta decimal.Decimal) error
	MarkJobPaid(jobID int64, paidAt time.Time) error
}

type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// WithinTx runs fn in a single database transaction. Any error returned by fn rolls it back.
func (r *LedgerRepository) WithinTx(ctx context.Context, fn func(tx LedgerTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ledgerTx{db: tx})
	})
}

type ledgerTx struct {
	db *gorm.DB
}

func (t *ledgerTx) LockJob(jobID int64) (*model.JobContract, error) {
	var row struct {
		ID             int64
		Description    string
		Price          decimal.Decimal
		Paid           bool
		PaymentDate    *time.Time
		ContractID     int64
		ClientID       int64
		ContractorID   int64
		ContractStatus model.ContractStatus
	}

	err := t.db.Raw(`
		SELECT
			j.id,
			j.description,
			j.price,
			COALESCE(j.paid, FALSE) AS paid,
			j.payment_date,
			j.contract_id,
			c.client_id,
			c.contractor_id,
			c.status AS contract_status
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		WHERE j.id = ?
		FOR UPDATE OF j
	`, jobID).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	return &model.JobContract{
		Job: model.Job{
			ID:          row.ID,
			Description: row.Description,
			Price:       row.Price,
			Paid:        row.Paid,
			PaymentDate: row.PaymentDate,
			ContractID:  row.ContractID,
		},
		ClientID:       row.ClientID,
		ContractorID:   row.ContractorID,
		ContractStatus: row.ContractStatus,
	}, nil
}

func (t *ledgerTx) GetJob(jobID int64) (*model.Job, error) {
	var job model.Job
	if err := t.db.Raw(`
		SELECT`+jobColumns+`
		FROM jobs j
		WHERE j.id = ?
		LIMIT 1
	`, jobID).Scan(&job).Error; err != nil {
		return nil, err
	}
	if job.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &job, nil
}

// LockProfiles locks the given profile rows in ascending id order and returns the
// rows that exist, in that order.
func (t *ledgerTx) LockProfiles(ids ...int64) ([]model.Profile, error) {
	ordered := uniqueSorted(ids)
	if len(ordered) == 0 {
		return []model.Profile{}, nil
	}

	profiles := []model.Profile{}
	if err := t.db.Raw(`
		SELECT id, first_name, last_name, profession, balance, type
		FROM profiles
		WHERE id IN ?
		ORDER BY id ASC
		FOR UPDATE
	`, ordered).Scan(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (t *ledgerTx) AdjustBalance(profileID int64, delta decimal.Decimal) error {
	res := t.db.Exec(`
		UPDATE profiles
		SET balance = balance + ?, updated_at = NOW()
		WHERE id = ?
	`, delta, profileID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (t *ledgerTx) MarkJobPaid(jobID int64, paidAt time.Time) error {
	res := t.db.Exec(`
		UPDATE jobs
		SET paid = TRUE, payment_date = ?, updated_at = NOW()
		WHERE id = ? AND paid IS NOT TRUE
	`, paidAt, jobID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrJobAlreadyPaid
	}
	return nil
}

func uniqueSorted(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	result := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
