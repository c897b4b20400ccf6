package types

// PaginationResponse describes the page a list response covers
type PaginationResponse struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// NewPaginationResponse creates a pagination block for a list response
func NewPaginationResponse(total, limit, offset int) *PaginationResponse {
	return &PaginationResponse{
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
}

// ListResponse is the envelope of every list endpoint
type ListResponse[T any] struct {
	Items      []T                 `json:"items"`
	Pagination *PaginationResponse `json:"pagination,omitempty"`
}
