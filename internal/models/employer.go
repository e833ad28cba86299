package models

import "fmt"

// Placeholders substituted for missing text and identifiers
const (
	PlaceholderName = "Без названия"
	PlaceholderURL  = "Ссылка не указана"
	PlaceholderCity = "Город не указан"

	MissingID = -1
)

// EmployerInput holds possibly-missing employer fields as they come out of parsing.
// Empty strings and nil pointers mean "absent".
type EmployerInput struct {
	ID            *int
	Name          string
	OpenVacancies *int
	URL           string
}

// Employer is a recruiting-platform company. It is never mutated after NewEmployer.
type Employer struct {
	id            int
	name          string
	openVacancies int
	url           string
}

// NewEmployer builds a fully populated Employer, substituting defaults for absent fields
func NewEmployer(in EmployerInput) Employer {
	return Employer{
		id:            intOr(in.ID, MissingID),
		name:          textOr(in.Name, PlaceholderName),
		openVacancies: intOr(in.OpenVacancies, 0),
		url:           urlOr(in.URL),
	}
}

func (e Employer) ID() int { return e.id }
func (e Employer) Name() string { return e.name }
func (e Employer) OpenVacancies() int { return e.openVacancies }
func (e Employer) URL() string { return e.url }

func (e Employer) String() string {
	return fmt.Sprintf("%s (ID - %d) | Вакансий — %d | %s", e.name, e.id, e.openVacancies, e.url)
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
