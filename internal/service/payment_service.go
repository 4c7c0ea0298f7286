package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nurpe/freelance-market/internal/model"
	"github.com/nurpe/freelance-market/internal/repository"
)

type ledger interface {
	WithinTx(ctx context.Context, fn func(tx repository.LedgerTx) error) error
}

type receiptReader interface {
	GetPaymentReceipt(ctx context.Context, jobID int64) (*model.PaymentReceipt, error)
}

type ReceiptGenerator interface {
	Generate(receipt model.PaymentReceipt) ([]byte, error)
}

type FileResult struct {
	FileName string
	Content  []byte
}

type PaymentService struct {
	ledger   ledger
	receipts receiptReader
	pdf      ReceiptGenerator
	now      func() time.Time
}

func NewPaymentService(ledger ledger, receipts receiptReader, pdf ReceiptGenerator) *PaymentService {
	return &PaymentService{
		ledger:   ledger,
		receipts: receipts,
		pdf:      pdf,
		now:      time.Now,
	}
}

// PayJob settles a job: the caller (the contract's client) is debited the job price and the
// contractor is credited, and the job is marked paid, all in one transaction.
func (s *PaymentService) PayJob(ctx context.Context, jobID int64, caller model.Profile) (*model.Job, error) {
	if jobID <= 0 {
		return nil, fmt.Errorf("%w: job id must be positive", ErrInvalidInput)
	}

	var paid model.Job
	err := s.ledger.WithinTx(ctx, func(tx repository.LedgerTx) error {
		job, err := tx.LockJob(jobID)
		if err != nil {
			return notFound(err, "job")
		}
		if job.ClientID != caller.ID {
			return fmt.Errorf("%w: only the contract client can pay this job", ErrPermissionDenied)
		}
		if job.Paid {
			return reject(model.RejectAlreadyPaid)
		}
		if job.ContractTerminated() {
			return reject(model.RejectContractTerminated)
		}

		profiles, err := tx.LockProfiles(job.ClientID, job.ContractorID)
		if err != nil {
			return err
		}
		client, ok := findProfile(profiles, job.ClientID)
		if !ok {
			return fmt.Errorf("%w: client profile", ErrNotFound)
		}
		if _, ok := findProfile(profiles, job.ContractorID); !ok {
			return fmt.Errorf("%w: contractor profile", ErrNotFound)
		}
		if client.Balance.LessThan(job.Price) {
			return reject(model.RejectInsufficientFunds)
		}

		if err := tx.AdjustBalance(job.ClientID, job.Price.Neg()); err != nil {
			return fmt.Errorf("debit client: %w", err)
		}
		if err := tx.AdjustBalance(job.ContractorID, job.Price); err != nil {
			return fmt.Errorf("credit contractor: %w", err)
		}

		paidAt := s.now().UTC()
		if err := tx.MarkJobPaid(job.ID, paidAt); err != nil {
			if errors.Is(err, repository.ErrJobAlreadyPaid) {
				return reject(model.RejectAlreadyPaid)
			}
			return fmt.Errorf("mark job paid: %w", err)
		}

		paid = job.Job
		paid.Paid = true
		paid.PaymentDate = &paidAt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &paid, nil
}

// Receipt renders a PDF receipt for a paid job. Only parties of the contract may see it.
func (s *PaymentService) Receipt(ctx context.Context, jobID int64, caller model.Profile) (*FileResult, error) {
	if jobID <= 0 {
		return nil, fmt.Errorf("%w: job id must be positive", ErrInvalidInput)
	}
	receipt, err := s.receipts.GetPaymentReceipt(ctx, jobID)
	if err != nil {
		return nil, notFound(err, "job")
	}
	if !receipt.Contract.HasParty(caller.ID) {
		return nil, fmt.Errorf("%w: job", ErrNotFound)
	}
	if !receipt.Job.Paid {
		return nil, reject(model.RejectJobNotPaid)
	}

	receipt.IssuedAt = s.now().UTC()
	content, err := s.pdf.Generate(*receipt)
	if err != nil {
		return nil, err
	}
	return &FileResult{
		FileName: fmt.Sprintf("receipt-job-%d.pdf", receipt.Job.ID),
		Content:  content,
	}, nil
}

func findProfile(profiles []model.Profile, id int64) (model.Profile, bool) {
	for _, p := range profiles {
		if p.ID == id {
			return p, true
		}
	}
	return model.Profile{}, false
}
