package storage

import (
	"context"
	"fmt"

	supabase "github.com/nedpals/supabase-go"

	"db-vacancy-manager/internal/errors"
	"db-vacancy-manager/internal/models"
)

// batchSize bounds the number of rows sent in one PostgREST insert
const batchSize = 50

// employerRecord and vacancyRecord mirror the PostgreSQL columns
type employerRecord struct {
	ID       int    `json:"emp_id"`
	Name     string `json:"name"`
	VacCount int    `json:"vac_count"`
	URL      string `json:"url"`
}

type vacancyRecord struct {
	ID         int    `json:"vac_id"`
	Title      string `json:"title"`
	SalaryFrom *int   `json:"salary_from"`
	SalaryTo   *int   `json:"salary_to"`
	City       string `json:"city"`
	URL        string `json:"url"`
	EmployerID int    `json:"emp_id"`
}

// upserter is the write path of the Supabase client
type upserter interface {
	upsert(ctx context.Context, table string, rows any) error
}

type supabaseUpserter struct {
	client *supabase.Client
}

// upsert merges on the primary key, so rows the remote side already holds do not fail the batch
func (s supabaseUpserter) upsert(ctx context.Context, table string, rows any) error {
	var results []map[string]any
	return s.client.DB.From(table).Upsert(rows).ExecuteWithContext(ctx, &results)
}

// SupabaseMirror copies loaded records into remote Supabase tables
type SupabaseMirror struct {
	db upserter
}

var _ Mirror = (*SupabaseMirror)(nil)

// NewSupabaseMirror creates a mirror for the project at supabaseURL
func NewSupabaseMirror(supabaseURL, supabaseKey string) (*SupabaseMirror, error) {
	if supabaseURL == "" || supabaseKey == "" {
		return nil, errors.Usage("supabase URL and key must be provided via config or SUPABASE_URL / SUPABASE_KEY env vars", nil)
	}

	// CreateClient returns *supabase.Client (no error)
	client := supabase.CreateClient(supabaseURL, supabaseKey)
	return &SupabaseMirror{db: supabaseUpserter{client: client}}, nil
}

func (m *SupabaseMirror) SaveEmployers(ctx context.Context, employers []models.Employer) error {
	records := make([]employerRecord, 0, len(employers))
	for _, e := range employers {
		records = append(records, employerRecord{
			ID:       e.ID(),
			Name:     e.Name(),
			VacCount: e.OpenVacancies(),
			URL:      e.URL(),
		})
	}
	return saveBatches(ctx, m.db, "employers", records)
}

func (m *SupabaseMirror) SaveVacancies(ctx context.Context, vacancies []models.Vacancy) error {
	records := make([]vacancyRecord, 0, len(vacancies))
	for _, v := range vacancies {
		from, to := v.SalaryBounds()
		records = append(records, vacancyRecord{
			ID:         v.ID(),
			Title:      v.Title(),
			SalaryFrom: from,
			SalaryTo:   to,
			City:       v.City(),
			URL:        v.URL(),
			EmployerID: v.EmployerID(),
		})
	}
	return saveBatches(ctx, m.db, "vacancies", records)
}

func saveBatches[T any](ctx context.Context, db upserter, table string, records []T) error {
	for i := 0; i < len(records); i += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(i+batchSize, len(records))
		if err := db.upsert(ctx, table, records[i:end]); err != nil {
			return errors.Upstream(fmt.Sprintf("failed to mirror %s %d-%d", table, i, end), err)
		}
	}
	return nil
}
