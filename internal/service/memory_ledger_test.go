package service

import (
	"context"
	"errors"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/freelance-market/internal/model"
	"github.com/nurpe/freelance-market/internal/repository"
)

var errConnectionReset = errors.New("connection reset")

// memoryLedger serializes transactions with a mutex and only publishes a transaction's
// writes when its callback returns nil.
type memoryLedger struct {
	mu        sync.Mutex
	profiles  map[int64]model.Profile
	contracts map[int64]model.Contract
	jobs      map[int64]model.Job

	failAdjustFor int64
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{
		profiles:  make(map[int64]model.Profile),
		contracts: make(map[int64]model.Contract),
		jobs:      make(map[int64]model.Job),
	}
}

func (m *memoryLedger) addProfile(p model.Profile) {
	m.profiles[p.ID] = p
}

func (m *memoryLedger) addContract(c model.Contract) {
	m.contracts[c.ID] = c
}

func (m *memoryLedger) addJob(j model.Job) {
	m.jobs[j.ID] = j
}

func (m *memoryLedger) balance(id int64) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profiles[id].Balance
}

func (m *memoryLedger) job(id int64) model.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobs[id]
}

func (m *memoryLedger) WithinTx(_ context.Context, fn func(tx repository.LedgerTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{
		ledger:   m,
		profiles: maps.Clone(m.profiles),
		jobs:     maps.Clone(m.jobs),
	}
	if err := fn(tx); err != nil {
		return err
	}
	m.profiles = tx.profiles
	m.jobs = tx.jobs
	return nil
}

func (m *memoryLedger) GetContract(_ context.Context, id int64) (*model.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contracts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (m *memoryLedger) ListContractsForProfile(_ context.Context, profileID int64) ([]model.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []model.Contract{}
	for _, c := range m.contracts {
		if c.HasParty(profileID) {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *memoryLedger) ListUnpaidJobs(_ context.Context, profileID int64) ([]model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []model.Job{}
	for _, j := range m.jobs {
		c := m.contracts[j.ContractID]
		if j.Paid || c.Status == model.ContractStatusTerminated || !c.HasParty(profileID) {
			continue
		}
		result = append(result, j)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *memoryLedger) GetPaymentReceipt(_ context.Context, jobID int64) (*model.PaymentReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := m.contracts[j.ContractID]
	return &model.PaymentReceipt{
		Job:        j,
		Contract:   c,
		Client:     m.profiles[c.ClientID],
		Contractor: m.profiles[c.ContractorID],
	}, nil
}

type memoryTx struct {
	ledger   *memoryLedger
	profiles map[int64]model.Profile
	jobs     map[int64]model.Job
}

func (t *memoryTx) LockJob(jobID int64) (*model.JobContract, error) {
	j, ok := t.jobs[jobID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := t.ledger.contracts[j.ContractID]
	return &model.JobContract{
		Job:            j,
		ClientID:       c.ClientID,
		ContractorID:   c.ContractorID,
		ContractStatus: c.Status,
	}, nil
}

func (t *memoryTx) GetJob(jobID int64) (*model.Job, error) {
	j, ok := t.jobs[jobID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &j, nil
}

func (t *memoryTx) LockProfiles(ids ...int64) ([]model.Profile, error) {
	result := []model.Profile{}
	for _, id := range ids {
		if p, ok := t.profiles[id]; ok {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (t *memoryTx) AdjustBalance(profileID int64, delta decimal.Decimal) error {
	if t.ledger.failAdjustFor == profileID {
		return errConnectionReset
	}
	p, ok := t.profiles[profileID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Balance = p.Balance.Add(delta)
	t.profiles[profileID] = p
	return nil
}

func (t *memoryTx) MarkJobPaid(jobID int64, paidAt time.Time) error {
	j, ok := t.jobs[jobID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if j.Paid {
		return repository.ErrJobAlreadyPaid
	}
	j.Paid = true
	j.PaymentDate = &paidAt
	t.jobs[jobID] = j
	return nil
}

func money(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

// seedLedger creates client 1 and contractor 2 linked by contract 10 (in progress) and
// contract 11 (terminated), with unpaid job 100 (contract 10) and job 101 (contract 11).
func seedLedger(clientBalance, jobPrice string) *memoryLedger {
	m := newMemoryLedger()
	m.addProfile(model.Profile{ID: 1, FirstName: "Harry", LastName: "Potter", Profession: "Wizard", Balance: money(clientBalance), Type: model.ProfileTypeClient})
	m.addProfile(model.Profile{ID: 2, FirstName: "Linus", LastName: "Torvalds", Profession: "Programmer", Balance: money("64"), Type: model.ProfileTypeContractor})
	m.addProfile(model.Profile{ID: 3, FirstName: "John", LastName: "Lenon", Profession: "Musician", Balance: money("0"), Type: model.ProfileTypeContractor})
	m.addContract(model.Contract{ID: 10, Terms: "bla bla", Status: model.ContractStatusInProgress, ClientID: 1, ContractorID: 2})
	m.addContract(model.Contract{ID: 11, Terms: "bla bla", Status: model.ContractStatusTerminated, ClientID: 1, ContractorID: 2})
	m.addJob(model.Job{ID: 100, Description: "work", Price: money(jobPrice), ContractID: 10})
	m.addJob(model.Job{ID: 101, Description: "old work", Price: money(jobPrice), ContractID: 11})
	return m
}
