package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/nurpe/freelance-market/internal/config"
	"github.com/nurpe/freelance-market/internal/model"
	"github.com/nurpe/freelance-market/internal/repository"
)

type DepositInput struct {
	TargetID int64
	Amount   decimal.Decimal
	JobID    int64
	Caller   model.Profile
}

const moneyScale = 2

type DepositService struct {
	ledger     ledger
	capPercent decimal.Decimal
}

func NewDepositService(ledger ledger, cfg *config.Config) *DepositService {
	return &DepositService{
		ledger:     ledger,
		capPercent: decimal.NewFromInt(int64(cfg.Payments.DepositCapPercent)),
	}
}

// Deposit moves amount from the caller to the target profile. The amount may not exceed
// the configured share of the referenced job's price nor the caller's balance.
func (s *DepositService) Deposit(ctx context.Context, input DepositInput) (*model.DepositResult, error) {
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	// balances are stored with two decimal places
	if !input.Amount.Equal(input.Amount.Round(moneyScale)) {
		return nil, fmt.Errorf("%w: amount must not have more than %d decimal places", ErrInvalidInput, moneyScale)
	}
	if input.TargetID <= 0 || input.JobID <= 0 {
		return nil, fmt.Errorf("%w: target and job ids must be positive", ErrInvalidInput)
	}
	if input.TargetID == input.Caller.ID {
		return nil, fmt.Errorf("%w: cannot deposit to yourself", ErrInvalidInput)
	}

	var result model.DepositResult
	err := s.ledger.WithinTx(ctx, func(tx repository.LedgerTx) error {
		job, err := tx.GetJob(input.JobID)
		if err != nil {
			return notFound(err, "job")
		}
		if input.Amount.GreaterThan(s.allowed(job.Price)) {
			return reject(model.RejectDepositCapExceeded)
		}

		profiles, err := tx.LockProfiles(input.Caller.ID, input.TargetID)
		if err != nil {
			return err
		}
		client, ok := findProfile(profiles, input.Caller.ID)
		if !ok {
			return fmt.Errorf("%w: caller profile", ErrNotFound)
		}
		target, ok := findProfile(profiles, input.TargetID)
		if !ok {
			return fmt.Errorf("%w: target profile", ErrNotFound)
		}
		if client.Balance.LessThan(input.Amount) {
			return reject(model.RejectInsufficientFunds)
		}

		if err := tx.AdjustBalance(client.ID, input.Amount.Neg()); err != nil {
			return fmt.Errorf("debit caller: %w", err)
		}
		if err := tx.AdjustBalance(target.ID, input.Amount); err != nil {
			return fmt.Errorf("credit target: %w", err)
		}

		result = model.DepositResult{
			ClientID:      client.ID,
			TargetID:      target.ID,
			Amount:        input.Amount,
			ClientBalance: client.Balance.Sub(input.Amount),
			TargetBalance: target.Balance.Add(input.Amount),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *DepositService) allowed(price decimal.Decimal) decimal.Decimal {
	return price.Mul(s.capPercent).Div(decimal.NewFromInt(100))
}
