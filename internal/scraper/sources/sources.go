package sources

import (
	"context"
)

// VacancyAPI is a recruiting platform returning raw, JSON-decoded records.
// Failures are logged by the implementation and surface as empty results.
type VacancyAPI interface {
	GetName() string
	// CheckConnection reports whether the platform answers at all
	CheckConnection(ctx context.Context) error
	// GetEmployers returns one record per configured employer name that resolved
	GetEmployers(ctx context.Context) []map[string]any
	// GetVacancies returns every page of vacancies for employerID up to the page cap
	GetVacancies(ctx context.Context, employerID int) []map[string]any
}

// itemsResponse is the envelope of every hh.ru list endpoint
type itemsResponse struct {
	Items []map[string]any `json:"items"`
}
