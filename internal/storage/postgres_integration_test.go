package storage

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"db-vacancy-manager/internal/models"
)

// newIntegrationStore connects to TEST_DATABASE_URL with a clean schema
func newIntegrationStore(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()
	store, err := NewPostgresStore(ctx, dsn, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	_, err = store.conn.Exec(ctx, "DROP TABLE IF EXISTS vacancies, employers")
	require.NoError(t, err)
	require.NoError(t, store.CreateTables(ctx))
	return store
}

func seed(t *testing.T, store *PostgresStore) {
	t.Helper()
	ctx := context.Background()

	employers := []models.Employer{
		models.NewEmployer(models.EmployerInput{ID: intPtr(1), Name: "Яндекс"}),
		models.NewEmployer(models.EmployerInput{ID: intPtr(2), Name: "VK"}),
		models.NewEmployer(models.EmployerInput{ID: intPtr(3), Name: "Тензор"}),
	}
	vacancies := []models.Vacancy{
		models.NewVacancy(models.VacancyInput{ID: intPtr(10), Title: "Senior Python Engineer", SalaryFrom: intPtr(100), SalaryTo: intPtr(200), EmployerID: intPtr(1)}),
		models.NewVacancy(models.VacancyInput{ID: intPtr(11), Title: "Java Developer", SalaryFrom: intPtr(150), SalaryTo: intPtr(150), EmployerID: intPtr(2)}),
		models.NewVacancy(models.VacancyInput{ID: intPtr(12), Title: "Team Lead", SalaryTo: intPtr(300), EmployerID: intPtr(1)}),
		models.NewVacancy(models.VacancyInput{ID: intPtr(13), Title: "Intern", EmployerID: intPtr(2)}),
	}

	insertedEmployers, err := store.InsertEmployers(ctx, employers)
	require.NoError(t, err)
	require.Len(t, insertedEmployers, 3)
	insertedVacancies, err := store.InsertVacancies(ctx, vacancies)
	require.NoError(t, err)
	require.Len(t, insertedVacancies, 4)
}

func TestIntegration_InsertIsIdempotentFirstWriteWins(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()
	seed(t, store)

	inserted, err := store.InsertEmployers(ctx, []models.Employer{
		models.NewEmployer(models.EmployerInput{ID: intPtr(1), Name: "Renamed"}),
		models.NewEmployer(models.EmployerInput{ID: intPtr(4), Name: "Ozon"}),
	})
	require.NoError(t, err)
	require.Len(t, inserted, 1)
	assert.Equal(t, 4, inserted[0].ID())

	companies, err := store.CompaniesAndVacanciesCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, []CompanyVacancies{
		{Name: "Ozon", Count: 0},
		{Name: "Тензор", Count: 0},
		{Name: "VK", Count: 2},
		{Name: "Яндекс", Count: 2},
	}, companies)
}

func TestIntegration_AverageAndAboveAverage(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()

	avg, err := store.AverageSalary(ctx)
	require.NoError(t, err)
	assert.Zero(t, avg)

	seed(t, store)

	avg, err = store.AverageSalary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 200.0, avg)

	higher, err := store.VacanciesWithHigherSalary(ctx)
	require.NoError(t, err)
	require.Len(t, higher, 1)
	assert.Equal(t, "Team Lead", higher[0].Title)
	assert.Nil(t, higher[0].SalaryFrom)
	assert.Equal(t, 300, *higher[0].SalaryTo)
}

func TestIntegration_AverageKeepsHalfOfMidpoint(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()

	_, err := store.InsertEmployers(ctx, []models.Employer{models.NewEmployer(models.EmployerInput{ID: intPtr(1), Name: "Ozon"})})
	require.NoError(t, err)
	_, err = store.InsertVacancies(ctx, []models.Vacancy{
		models.NewVacancy(models.VacancyInput{ID: intPtr(1), Title: "Dev", SalaryFrom: intPtr(100), SalaryTo: intPtr(201), EmployerID: intPtr(1)}),
	})
	require.NoError(t, err)

	avg, err := store.AverageSalary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 150.5, avg)
}

func TestIntegration_KeywordSearch(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()
	seed(t, store)

	found, err := store.VacanciesWithKeyword(ctx, []string{"python", "JAVA"})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Java Developer", found[0].Title)
	assert.Equal(t, "Senior Python Engineer", found[1].Title)

	found, err = store.VacanciesWithKeyword(ctx, []string{"%"})
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestIntegration_DeleteEmployerCascades(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()
	seed(t, store)

	require.NoError(t, store.DeleteEmployer(ctx, 1))

	all, err := store.AllVacancies(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, v := range all {
		assert.Equal(t, "VK", v.Company)
	}
}
