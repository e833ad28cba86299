package session

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"db-vacancy-manager/internal/models"
	"db-vacancy-manager/internal/storage"
)

func intPtr(v int) *int { return &v }

type fakeStore struct {
	keywords [][]string
	err      error
}

func (f *fakeStore) CompaniesAndVacanciesCount(ctx context.Context) ([]storage.CompanyVacancies, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []storage.CompanyVacancies{{Name: "Тензор", Count: 0}, {Name: "Яндекс", Count: 2}}, nil
}

func (f *fakeStore) AllVacancies(ctx context.Context) ([]storage.VacancyRow, error) {
	return []storage.VacancyRow{
		{Company: "VK", Title: "Java Developer", SalaryFrom: intPtr(150), SalaryTo: intPtr(150), URL: "https://hh.ru/vacancy/11"},
		{Company: "Яндекс", Title: "Intern", URL: "https://hh.ru/vacancy/13"},
	}, nil
}

func (f *fakeStore) AverageSalary(ctx context.Context) (float64, error) {
	return 200, nil
}

func (f *fakeStore) VacanciesWithHigherSalary(ctx context.Context) ([]storage.VacancyRow, error) {
	return []storage.VacancyRow{
		{Company: "Яндекс", Title: "Team Lead", SalaryTo: intPtr(300), URL: "https://hh.ru/vacancy/12"},
	}, nil
}

func (f *fakeStore) VacanciesWithKeyword(ctx context.Context, keywords []string) ([]storage.VacancyRow, error) {
	f.keywords = append(f.keywords, keywords)
	if keywords[0] == "cobol" {
		return []storage.VacancyRow{}, nil
	}
	return []storage.VacancyRow{
		{Company: "Яндекс", Title: "Senior Python Engineer", SalaryFrom: intPtr(100), SalaryTo: intPtr(200), URL: "https://hh.ru/vacancy/10"},
	}, nil
}

func run(t *testing.T, store Querier, input string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := New(store, strings.NewReader(input), &out, zaptest.NewLogger(t)).Run(context.Background())
	return out.String(), err
}

func TestRun_EveryMenuItem(t *testing.T) {
	store := &fakeStore{}

	out, err := run(t, store, "1\n2\n3\n4\n5\n  \npython java\n5\ncobol\n7\n0\n")
	require.NoError(t, err)

	for _, want := range []string{
		"Меню управления вакансиями:",
		"Выберите действие: ",
		"➢ Тензор: 0 вакансий.",
		"➢ Яндекс: 2 вакансий.",
		"➢ Java Developer | Компания: VK | 150 ₽ | https://hh.ru/vacancy/11",
		"➢ Intern | Компания: Яндекс | " + models.SalaryNotSpecified + " | https://hh.ru/vacancy/13",
		"➢ Средняя зарплата по вакансиям: 200.00 руб.",
		"➢ Team Lead | Компания: Яндекс | до 300 ₽ | https://hh.ru/vacancy/12",
		"⚠️ Пожалуйста, введите ключевые слова для поиска.",
		"Найдено 1 вакансий по запросу 'python java':",
		"➢ Senior Python Engineer | Компания: Яндекс | 100 — 200 ₽ | https://hh.ru/vacancy/10",
		"Найдено 0 вакансий по запросу 'cobol':",
		"⚠️ По вашему запросу ничего не найдено.",
		"⚠️ Некорректный ответ. Повторите ввод.",
		"👋🏻 Выход из программы.",
	} {
		assert.Contains(t, out, want)
	}

	assert.Equal(t, [][]string{{"python", "java"}, {"cobol"}}, store.keywords)
	assert.Equal(t, 8, strings.Count(out, "Меню управления вакансиями:"))
}

func TestRun_EOFExits(t *testing.T) {
	out, err := run(t, &fakeStore{}, "3\n")
	require.NoError(t, err)
	assert.Contains(t, out, "200.00 руб.")
	assert.True(t, strings.HasSuffix(out, "👋🏻 Выход из программы.\n"))
}

func TestRun_EOFDuringKeywordPrompt(t *testing.T) {
	store := &fakeStore{}
	out, err := run(t, store, "5\n\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Пожалуйста, введите ключевые слова")
	assert.Empty(t, store.keywords)
}

func TestRun_StoreErrorEndsSession(t *testing.T) {
	store := &fakeStore{err: fmt.Errorf("connection lost")}

	out, err := run(t, store, "1\n0\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection lost")
	assert.NotContains(t, out, "Выход из программы")
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := New(&fakeStore{}, strings.NewReader("1\n"), &out, zaptest.NewLogger(t)).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}
