package storage

import (
	"context"

	"db-vacancy-manager/internal/models"
)

// Store persists employers and vacancies and answers the read queries
type Store interface {
	// CreateTables creates the schema if it does not exist yet
	CreateTables(ctx context.Context) error
	// InsertEmployers inserts employers, skipping identifiers already stored. It returns
	// the employers actually inserted, in input order.
	InsertEmployers(ctx context.Context, employers []models.Employer) ([]models.Employer, error)
	// InsertVacancies behaves like InsertEmployers. Employers must be inserted first.
	InsertVacancies(ctx context.Context, vacancies []models.Vacancy) ([]models.Vacancy, error)

	CompaniesAndVacanciesCount(ctx context.Context) ([]CompanyVacancies, error)
	AllVacancies(ctx context.Context) ([]VacancyRow, error)
	AverageSalary(ctx context.Context) (float64, error)
	VacanciesWithHigherSalary(ctx context.Context) ([]VacancyRow, error)
	VacanciesWithKeyword(ctx context.Context, keywords []string) ([]VacancyRow, error)

	// DeleteEmployer removes an employer together with its vacancies
	DeleteEmployer(ctx context.Context, employerID int) error
	Close(ctx context.Context) error
}

// Mirror receives the rows each successful load added to the store
type Mirror interface {
	SaveEmployers(ctx context.Context, employers []models.Employer) error
	SaveVacancies(ctx context.Context, vacancies []models.Vacancy) error
}

// CompanyVacancies is one row of the companies report
type CompanyVacancies struct {
	Name  string `json:"name"`
	Count int64  `json:"vacancy_count"`
}

// VacancyRow is the projection shared by the vacancy listings
type VacancyRow struct {
	Company    string `json:"company"`
	Title      string `json:"title"`
	SalaryFrom *int   `json:"salary_from"`
	SalaryTo   *int   `json:"salary_to"`
	URL        string `json:"url"`
}

// Salary renders the row's salary range
func (r VacancyRow) Salary() string {
	return models.FormatSalary(r.SalaryFrom, r.SalaryTo)
}
