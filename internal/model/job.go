package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Job struct {
	ID          int64           `json:"id"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Paid        bool            `json:"paid"`
	PaymentDate *time.Time      `json:"paymentDate,omitempty"`
	ContractID  int64           `json:"ContractId"`
}

// JobContract is a job joined with the parties and status of its contract.
type JobContract struct {
	Job
	ClientID       int64
	ContractorID   int64
	ContractStatus ContractStatus
}

func (j JobContract) ContractTerminated() bool {
	return j.ContractStatus == ContractStatusTerminated
}
