package shared

// Pagination contains metadata for paginated listings. Index is zero based.
type Pagination struct {
	Index      int  `json:"index"`
	Size       int  `json:"size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasPrev    bool `json:"hasPrev"`
	HasNext    bool `json:"hasNext"`
}

// NewPagination computes pagination metadata.
func NewPagination(index, size, total int) Pagination {
	if size <= 0 {
		size = 20
	}
	if index < 0 {
		index = 0
	}
	totalPages := (total + size - 1) / size
	return Pagination{
		Index:      index,
		Size:       size,
		Total:      total,
		TotalPages: totalPages,
		HasPrev:    index > 0,
		HasNext:    index < totalPages-1,
	}
}
