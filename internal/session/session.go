// Package session runs the numbered text menu over the stored vacancies.
package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"db-vacancy-manager/internal/storage"
)

// Querier is the read side of storage.Store
type Querier interface {
	CompaniesAndVacanciesCount(ctx context.Context) ([]storage.CompanyVacancies, error)
	AllVacancies(ctx context.Context) ([]storage.VacancyRow, error)
	AverageSalary(ctx context.Context) (float64, error)
	VacanciesWithHigherSalary(ctx context.Context) ([]storage.VacancyRow, error)
	VacanciesWithKeyword(ctx context.Context, keywords []string) ([]storage.VacancyRow, error)
}

const menu = `
Меню управления вакансиями:
1 - 🏢 Список компаний и количество вакансий
2 - 📜 Список всех вакансий
3 - 💲 Средняя зарплата по вакансиям
4 - ⬆️ Вакансии с зарплатой выше средней
5 - 🔎 Поиск вакансий по ключевому слову
0 - 🚪 Выход
`

const (
	choicePrompt  = "Выберите действие: "
	keywordPrompt = "\nВведите ключевые слова через пробел: "

	msgInvalidChoice = "⚠️ Некорректный ответ. Повторите ввод."
	msgNoKeywords    = "⚠️ Пожалуйста, введите ключевые слова для поиска."
	msgNothingFound  = "\n⚠️ По вашему запросу ничего не найдено."
	msgExit          = "\n👋🏻 Выход из программы."
)

// Session reads one menu choice per line from in and writes the answers to out
type Session struct {
	store  Querier
	in     *bufio.Scanner
	out    io.Writer
	logger *zap.Logger
}

func New(store Querier, in io.Reader, out io.Writer, logger *zap.Logger) *Session {
	return &Session{
		store:  store,
		in:     bufio.NewScanner(in),
		out:    out,
		logger: logger,
	}
}

// Run shows the menu until the user exits or input ends. Store errors end the session and
// are returned.
func (s *Session) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.print(menu)
		s.logger.Info("waiting for a menu choice")
		choice, ok := s.readLine(choicePrompt)
		if !ok {
			s.logger.Info("input closed")
			s.println(msgExit)
			return nil
		}
		s.logger.Info("user entered", zap.String("choice", choice))

		var err error
		switch choice {
		case "1":
			err = s.showCompanies(ctx)
		case "2":
			err = s.showAllVacancies(ctx)
		case "3":
			err = s.showAverageSalary(ctx)
		case "4":
			err = s.showHigherSalary(ctx)
		case "5":
			var closed bool
			closed, err = s.searchByKeywords(ctx)
			if closed {
				s.println(msgExit)
				return nil
			}
		case "0":
			s.println(msgExit)
			return nil
		default:
			s.logger.Info("invalid choice, asking again", zap.String("choice", choice))
			s.println(msgInvalidChoice)
		}
		if err != nil {
			return err
		}
	}
}

func (s *Session) showCompanies(ctx context.Context) error {
	companies, err := s.store.CompaniesAndVacanciesCount(ctx)
	if err != nil {
		return err
	}
	s.println("\nКомпании и количество вакансий:")
	for _, c := range companies {
		s.println(FormatCompany(c))
	}
	return nil
}

func (s *Session) showAllVacancies(ctx context.Context) error {
	vacancies, err := s.store.AllVacancies(ctx)
	if err != nil {
		return err
	}
	s.println("\nСписок вакансий:")
	s.printVacancies(vacancies)
	return nil
}

func (s *Session) showAverageSalary(ctx context.Context) error {
	avg, err := s.store.AverageSalary(ctx)
	if err != nil {
		return err
	}
	s.println("\n" + FormatAverageSalary(avg))
	return nil
}

func (s *Session) showHigherSalary(ctx context.Context) error {
	vacancies, err := s.store.VacanciesWithHigherSalary(ctx)
	if err != nil {
		return err
	}
	s.println("\nВакансии с зарплатой выше средней:")
	s.printVacancies(vacancies)
	return nil
}

// searchByKeywords prompts until a keyword is given. closed reports that input ended first.
func (s *Session) searchByKeywords(ctx context.Context) (closed bool, err error) {
	for {
		line, ok := s.readLine(keywordPrompt)
		if !ok {
			return true, nil
		}
		keywords := strings.Fields(line)
		if len(keywords) == 0 {
			s.logger.Info("no keywords entered, asking again")
			s.println(msgNoKeywords)
			continue
		}

		vacancies, err := s.store.VacanciesWithKeyword(ctx, keywords)
		if err != nil {
			return false, err
		}
		s.println(fmt.Sprintf("\nНайдено %d вакансий по запросу '%s':", len(vacancies), strings.Join(keywords, " ")))
		if len(vacancies) == 0 {
			s.println(msgNothingFound)
			return false, nil
		}
		s.printVacancies(vacancies)
		return false, nil
	}
}

func (s *Session) printVacancies(vacancies []storage.VacancyRow) {
	for _, v := range vacancies {
		s.println(FormatVacancy(v))
	}
}

// FormatCompany renders one line of the companies report
func FormatCompany(c storage.CompanyVacancies) string {
	return fmt.Sprintf("➢ %s: %d вакансий.", c.Name, c.Count)
}

// FormatVacancy renders one line of a vacancy listing
func FormatVacancy(v storage.VacancyRow) string {
	return fmt.Sprintf("➢ %s | Компания: %s | %s | %s", v.Title, v.Company, v.Salary(), v.URL)
}

// FormatAverageSalary renders the average salary line
func FormatAverageSalary(avg float64) string {
	return fmt.Sprintf("➢ Средняя зарплата по вакансиям: %.2f руб.", avg)
}

func (s *Session) readLine(prompt string) (string, bool) {
	s.print(prompt)
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

func (s *Session) print(text string) {
	fmt.Fprint(s.out, text)
}

func (s *Session) println(text string) {
	fmt.Fprintln(s.out, text)
}
