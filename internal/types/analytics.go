package types

import (
	"github.com/samber/lo"
	ierr "github.com/subtrack/subtrack/internal/errors"
)

// ExpensePeriod selects the bucket size of the expense report
type ExpensePeriod string

const (
	ExpensePeriodMonthly ExpensePeriod = "monthly"
	ExpensePeriodYearly  ExpensePeriod = "yearly"
)

func (p ExpensePeriod) String() string {
	return string(p)
}

func (p ExpensePeriod) Validate() error {
	allowed := []ExpensePeriod{ExpensePeriodMonthly, ExpensePeriodYearly}
	if lo.Contains(allowed, p) {
		return nil
	}
	return ierr.NewError("invalid expense period").
		WithHintf("Period must be one of: %s", joinEnum(allowed)).
		WithReportableDetails(map[string]interface{}{
			"period": p,
		}).
		Mark(ierr.ErrValidation)
}
