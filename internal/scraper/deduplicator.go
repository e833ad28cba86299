package scraper

import (
	"sync"

	"db-vacancy-manager/internal/models"
)

// Deduplicator drops records whose identifier was already seen
type Deduplicator struct {
	seenEmployers map[int]bool
	seenVacancies map[int]bool
	mu            sync.Mutex
}

// NewDeduplicator creates a new deduplicator
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{
		seenEmployers: make(map[int]bool),
		seenVacancies: make(map[int]bool),
	}
}

// UniqueEmployers returns employers not seen before, in input order
func (d *Deduplicator) UniqueEmployers(employers []models.Employer) []models.Employer {
	d.mu.Lock()
	defer d.mu.Unlock()

	unique := make([]models.Employer, 0, len(employers))
	for _, e := range employers {
		if !d.seenEmployers[e.ID()] {
			d.seenEmployers[e.ID()] = true
			unique = append(unique, e)
		}
	}
	return unique
}

// UniqueVacancies returns vacancies not seen before, in input order
func (d *Deduplicator) UniqueVacancies(vacancies []models.Vacancy) []models.Vacancy {
	d.mu.Lock()
	defer d.mu.Unlock()

	unique := make([]models.Vacancy, 0, len(vacancies))
	for _, v := range vacancies {
		if !d.seenVacancies[v.ID()] {
			d.seenVacancies[v.ID()] = true
			unique = append(unique, v)
		}
	}
	return unique
}

// HasEmployer reports whether an employer with id was seen, without recording it
func (d *Deduplicator) HasEmployer(id int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.seenEmployers[id]
}
