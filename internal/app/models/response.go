package models

import "time"

// APIError is the error body nested inside the response envelope.
type APIError struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// APIResponse is the uniform JSON envelope for every endpoint.
type APIResponse struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Error     *APIError `json:"error,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ListPayload wraps paginated collections.
type ListPayload struct {
	Items      any `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// NewListPayload computes totalPages from total and limit.
func NewListPayload(items any, total, page, limit int) ListPayload {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return ListPayload{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}
