package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period is an inclusive payment date range.
type Period struct {
	Start time.Time
	End   time.Time
}

type ProfessionTotal struct {
	Profession string          `json:"profession"`
	Total      decimal.Decimal `json:"total"`
}

type ClientTotal struct {
	ID       int64           `json:"id"`
	FullName string          `json:"fullName"`
	Paid     decimal.Decimal `json:"paid"`
}

type ClientsReport struct {
	Period  Period
	Clients []ClientTotal
}
