package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/freelance-market/internal/model"
)

const jobColumns = `
	j.id,
	j.description,
	j.price,
	COALESCE(j.paid, FALSE) AS paid,
	j.payment_date,
	j.contract_id`

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

func (r *ContractRepository) GetContract(ctx context.Context, id int64) (*model.Contract, error) {
	var contract model.Contract
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, terms, status, contractor_id, client_id
		FROM contracts
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&contract).Error; err != nil {
		return nil, err
	}
	if contract.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &contract, nil
}

// ListContractsForProfile returns contracts where the profile is the client or the contractor.
func (r *ContractRepository) ListContractsForProfile(ctx context.Context, profileID int64) ([]model.Contract, error) {
	contracts := []model.Contract{}
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, terms, status, contractor_id, client_id
		FROM contracts
		WHERE client_id = ? OR contractor_id = ?
		ORDER BY id ASC
	`, profileID, profileID).Scan(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}

func (r *ContractRepository) ListUnpaidJobs(ctx context.Context, profileID int64) ([]model.Job, error) {
	jobs := []model.Job{}
	if err := r.db.WithContext(ctx).Raw(`
		SELECT`+jobColumns+`
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		WHERE c.status <> 'terminated'
			AND j.paid IS NOT TRUE
			AND (c.client_id = ? OR c.contractor_id = ?)
		ORDER BY j.id ASC
	`, profileID, profileID).Scan(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *ContractRepository) GetPaymentReceipt(ctx context.Context, jobID int64) (*model.PaymentReceipt, error) {
	var row struct {
		JobID                int64
		Description          string
		Price                decimal.Decimal
		Paid                 bool
		PaymentDate          *time.Time
		ContractID           int64
		Terms                string
		Status               model.ContractStatus
		ClientID             int64
		ClientFirstName      string
		ClientLastName       string
		ClientProfession     string
		ContractorID         int64
		ContractorFirstName  string
		ContractorLastName   string
		ContractorProfession string
	}

	err := r.db.WithContext(ctx).Raw(`
		SELECT
			j.id AS job_id,
			j.description,
			j.price,
			COALESCE(j.paid, FALSE) AS paid,
			j.payment_date,
			c.id AS contract_id,
			c.terms,
			c.status,
			client.id AS client_id,
			client.first_name AS client_first_name,
			client.last_name AS client_last_name,
			client.profession AS client_profession,
			contractor.id AS contractor_id,
			contractor.first_name AS contractor_first_name,
			contractor.last_name AS contractor_last_name,
			contractor.profession AS contractor_profession
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		JOIN profiles client ON client.id = c.client_id
		JOIN profiles contractor ON contractor.id = c.contractor_id
		WHERE j.id = ?
	`, jobID).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.JobID == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	return &model.PaymentReceipt{
		Job: model.Job{
			ID:          row.JobID,
			Description: row.Description,
			Price:       row.Price,
			Paid:        row.Paid,
			PaymentDate: row.PaymentDate,
			ContractID:  row.ContractID,
		},
		Contract: model.Contract{
			ID:           row.ContractID,
			Terms:        row.Terms,
			Status:       row.Status,
			ContractorID: row.ContractorID,
			ClientID:     row.ClientID,
		},
		Client: model.Profile{
			ID:         row.ClientID,
			FirstName:  row.ClientFirstName,
			LastName:   row.ClientLastName,
			Profession: row.ClientProfession,
			Type:       model.ProfileTypeClient,
		},
		Contractor: model.Profile{
			ID:         row.ContractorID,
			FirstName:  row.ContractorFirstName,
			LastName:   row.ContractorLastName,
			Profession: row.ContractorProfession,
			Type:       model.ProfileTypeContractor,
		},
	}, nil
}
