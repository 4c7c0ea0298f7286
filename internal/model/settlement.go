package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type RejectReason string

const (
	RejectAlreadyPaid        RejectReason = "already_paid"
	RejectContractTerminated RejectReason = "contract_terminated"
	RejectInsufficientFunds  RejectReason = "insufficient_balance"
	RejectDepositCapExceeded RejectReason = "exceeds_deposit_cap"
	RejectJobNotPaid         RejectReason = "job_not_paid"
)

type DepositResult struct {
	ClientID      int64           `json:"clientId"`
	TargetID      int64           `json:"targetId"`
	Amount        decimal.Decimal `json:"amount"`
	ClientBalance decimal.Decimal `json:"clientBalance"`
	TargetBalance decimal.Decimal `json:"targetBalance"`
}

type PaymentReceipt struct {
	Job        Job
	Contract   Contract
	Client     Profile
	Contractor Profile
	IssuedAt   time.Time
}
