package models

import "fmt"

// VacancyInput holds possibly-missing vacancy fields as they come out of parsing.
// Empty strings and nil pointers mean "absent".
type VacancyInput struct {
	ID         *int
	Title      string
	SalaryFrom *int
	SalaryTo   *int
	EmployerID *int
	City       string
	URL        string
}

// Vacancy is a single job posting tied to one employer.
//
// Salary bounds remember whether they were present: SalaryFrom and SalaryTo read 0 for an
// absent bound, SalaryBounds reports nil so the store can keep NULL apart from a known 0.
type Vacancy struct {
	id         int
	title      string
	salaryFrom *int
	salaryTo   *int
	employerID int
	city       string
	url        string
}

// NewVacancy builds a fully populated Vacancy, substituting defaults for absent fields
func NewVacancy(in VacancyInput) Vacancy {
	return Vacancy{
		id:         intOr(in.ID, MissingID),
		title:      textOr(in.Title, PlaceholderName),
		salaryFrom: copyInt(in.SalaryFrom),
		salaryTo:   copyInt(in.SalaryTo),
		employerID: intOr(in.EmployerID, MissingID),
		city:       textOr(in.City, PlaceholderCity),
		url:        urlOr(in.URL),
	}
}

func (v Vacancy) ID() int { return v.id }
func (v Vacancy) Title() string { return v.title }
func (v Vacancy) SalaryFrom() int { return intOr(v.salaryFrom, 0) }
func (v Vacancy) SalaryTo() int { return intOr(v.salaryTo, 0) }
func (v Vacancy) EmployerID() int { return v.employerID }
func (v Vacancy) City() string { return v.city }
func (v Vacancy) URL() string { return v.url }

// SalaryBounds returns copies of the bounds, nil where the bound was not published
func (v Vacancy) SalaryBounds() (from, to *int) {
	return copyInt(v.salaryFrom), copyInt(v.salaryTo)
}

func (v Vacancy) String() string {
	return fmt.Sprintf("%s | ID работодателя: %d | %s | %s | %s",
		v.title, v.employerID, v.city, FormatSalary(v.salaryFrom, v.salaryTo), v.url)
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
