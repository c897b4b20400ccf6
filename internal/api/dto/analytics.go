package dto

import (
	"github.com/shopspring/decimal"
	"github.com/subtrack/subtrack/internal/types"
)

// ExpenseBucket is the spend of one month ("Jan 2006") or one year ("2006")
type ExpenseBucket struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

type ExpensesResponse struct {
	Period  types.ExpensePeriod `json:"period"`
	Buckets []ExpenseBucket     `json:"buckets"`
}

// CategorySpend is the monthly equivalent spend of one category
type CategorySpend struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Color  string          `json:"color"`
}

type CategoriesResponse struct {
	Items []CategorySpend `json:"items"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Mongo    string `json:"mongo"`
	Temporal string `json:"temporal"`
}
