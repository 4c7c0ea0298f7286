package service

import (
	"context"
	"fmt"

	"github.com/nurpe/freelance-market/internal/model"
)

type contractReader interface {
	GetContract(ctx context.Context, id int64) (*model.Contract, error)
	ListContractsForProfile(ctx context.Context, profileID int64) ([]model.Contract, error)
	ListUnpaidJobs(ctx context.Context, profileID int64) ([]model.Job, error)
}

type ContractService struct {
	repo contractReader
}

func NewContractService(repo contractReader) *ContractService {
	return &ContractService{repo: repo}
}

// GetContract returns the contract only to its client or contractor; other callers get ErrNotFound.
func (s *ContractService) GetContract(ctx context.Context, id int64, caller model.Profile) (*model.Contract, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: contract id must be positive", ErrInvalidInput)
	}
	contract, err := s.repo.GetContract(ctx, id)
	if err != nil {
		return nil, notFound(err, "contract")
	}
	if !contract.HasParty(caller.ID) {
		return nil, fmt.Errorf("%w: contract", ErrNotFound)
	}
	return contract, nil
}

func (s *ContractService) ListContracts(ctx context.Context, caller model.Profile) ([]model.Contract, error) {
	return s.repo.ListContractsForProfile(ctx, caller.ID)
}

func (s *ContractService) ListUnpaidJobs(ctx context.Context, caller model.Profile) ([]model.Job, error) {
	return s.repo.ListUnpaidJobs(ctx, caller.ID)
}
