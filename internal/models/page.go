package models

import "math"

// PageRequest is a zero-based page index and a page size.
type PageRequest struct {
	Page int
	Size int
}

// Offset is the number of rows to skip. It saturates at math.MaxInt instead of overflowing.
func (p PageRequest) Offset() int {
	if p.Page <= 0 || p.Size <= 0 {
		return 0
	}
	if p.Page > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return p.Page * p.Size
}

type Page[T any] struct {
	Content       []T
	Page          int
	Size          int
	TotalElements int
	TotalPages    int
}

func NewPage[T any](content []T, req PageRequest, total int) *Page[T] {
	pages := 0
	if req.Size > 0 {
		pages = (total + req.Size - 1) / req.Size
	}
	if content == nil {
		content = []T{}
	}
	return &Page[T]{
		Content:       content,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    pages,
	}
}
