package types

import (
	"github.com/samber/lo"
	ierr "github.com/subtrack/subtrack/internal/errors"
)

const (
	FILTER_DEFAULT_LIMIT = 50
	FILTER_MAX_LIMIT     = 1000
	DEFAULT_BATCH_SIZE   = 100
)

// QueryFilter carries pagination and ordering shared by list endpoints
type QueryFilter struct {
	Limit  *int    `json:"limit,omitempty" form:"limit" validate:"omitempty,min=1,max=1000"`
	Offset *int    `json:"offset,omitempty" form:"offset" validate:"omitempty,min=0"`
	Sort   *string `json:"sort,omitempty" form:"sort"`
	Order  *string `json:"order,omitempty" form:"order" validate:"omitempty,oneof=asc desc"`

	noLimit bool
}

func NewDefaultQueryFilter() *QueryFilter {
	return &QueryFilter{
		Limit:  lo.ToPtr(FILTER_DEFAULT_LIMIT),
		Offset: lo.ToPtr(0),
		Sort:   lo.ToPtr("created_at"),
		Order:  lo.ToPtr("desc"),
	}
}

func NewNoLimitQueryFilter() *QueryFilter {
	return &QueryFilter{
		Offset:  lo.ToPtr(0),
		Sort:    lo.ToPtr("created_at"),
		Order:   lo.ToPtr("desc"),
		noLimit: true,
	}
}

func (f *QueryFilter) Validate() error {
	if f == nil {
		return nil
	}
	if f.Limit != nil && (*f.Limit < 1 || *f.Limit > FILTER_MAX_LIMIT) {
		return ierr.NewError("invalid limit").
			WithHintf("Limit must be between 1 and %d", FILTER_MAX_LIMIT).
			Mark(ierr.ErrValidation)
	}
	if f.Offset != nil && *f.Offset < 0 {
		return ierr.NewError("invalid offset").
			WithHint("Offset cannot be negative").
			Mark(ierr.ErrValidation)
	}
	if f.Order != nil && *f.Order != "asc" && *f.Order != "desc" {
		return ierr.NewError("invalid order").
			WithHint("Order must be asc or desc").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (f *QueryFilter) GetLimit() int {
	if f == nil || f.Limit == nil {
		if f != nil && f.noLimit {
			return 0
		}
		return FILTER_DEFAULT_LIMIT
	}
	return *f.Limit
}

func (f *QueryFilter) GetOffset() int {
	if f == nil || f.Offset == nil {
		return 0
	}
	return *f.Offset
}

func (f *QueryFilter) GetSort() string {
	if f == nil || f.Sort == nil {
		return "created_at"
	}
	return *f.Sort
}

func (f *QueryFilter) GetOrder() string {
	if f == nil || f.Order == nil {
		return "desc"
	}
	return *f.Order
}

// IsUnlimited reports whether the filter was built without a page size
func (f *QueryFilter) IsUnlimited() bool {
	return f != nil && f.noLimit && f.Limit == nil
}
