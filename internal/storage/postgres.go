package storage

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"db-vacancy-manager/internal/errors"
	"db-vacancy-manager/internal/models"
)

// conn is the subset of *pgx.Conn the store uses
type conn interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// PostgresStore implements Store over a single PostgreSQL connection. It is not safe for
// concurrent use.
type PostgresStore struct {
	conn   conn
	logger *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects to dsn and verifies the connection
func NewPostgresStore(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresStore, error) {
	c, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, errors.Upstream("failed to connect to database", err)
	}
	store := newPostgresStore(c, logger)
	if err := c.Ping(ctx); err != nil {
		_ = store.Close(ctx)
		return nil, errors.Upstream("failed to ping database", err)
	}
	logger.Info("connected to database", zap.String("database", c.Config().Database))
	return store, nil
}

func newPostgresStore(c conn, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{conn: c, logger: logger}
}

// withTx runs fn in a transaction, committing on success and rolling back on error
func (s *PostgresStore) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			s.logger.Warn("rollback failed", zap.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateTables(ctx context.Context) error {
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		for _, stmt := range []string{createEmployersTable, createVacanciesTable} {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Storage("failed to create tables", err)
	}
	s.logger.Info("tables are ready")
	return nil
}

func (s *PostgresStore) InsertEmployers(ctx context.Context, employers []models.Employer) ([]models.Employer, error) {
	if len(employers) == 0 {
		return []models.Employer{}, nil
	}

	var inserted []models.Employer
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		inserted = make([]models.Employer, 0, len(employers))
		for _, e := range employers {
			tag, err := tx.Exec(ctx, insertEmployer, e.ID(), e.Name(), e.OpenVacancies(), e.URL())
			if err != nil {
				return fmt.Errorf("employer %d: %w", e.ID(), err)
			}
			// ON CONFLICT DO NOTHING affects no row for a known id
			if tag.RowsAffected() > 0 {
				inserted = append(inserted, e)
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Storage("failed to insert employers", err)
	}

	s.logger.Info(fmt.Sprintf("inserted %d/%d employers", len(inserted), len(employers)))
	return inserted, nil
}

func (s *PostgresStore) InsertVacancies(ctx context.Context, vacancies []models.Vacancy) ([]models.Vacancy, error) {
	if len(vacancies) == 0 {
		return []models.Vacancy{}, nil
	}

	var inserted []models.Vacancy
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		inserted = make([]models.Vacancy, 0, len(vacancies))
		for _, v := range vacancies {
			from, to := v.SalaryBounds()
			tag, err := tx.Exec(ctx, insertVacancy,
				v.ID(), v.Title(), from, to, v.City(), v.URL(), v.EmployerID())
			if err != nil {
				return fmt.Errorf("vacancy %d: %w", v.ID(), err)
			}
			if tag.RowsAffected() > 0 {
				inserted = append(inserted, v)
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Storage("failed to insert vacancies", err)
	}

	s.logger.Info(fmt.Sprintf("inserted %d/%d vacancies", len(inserted), len(vacancies)))
	return inserted, nil
}

func (s *PostgresStore) CompaniesAndVacanciesCount(ctx context.Context) ([]CompanyVacancies, error) {
	rows, err := s.conn.Query(ctx, selectCompaniesAndVacanciesCount)
	if err != nil {
		return nil, errors.Storage("failed to query companies", err)
	}
	defer rows.Close()

	companies := []CompanyVacancies{}
	for rows.Next() {
		var c CompanyVacancies
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, errors.Storage("failed to scan company", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Storage("failed to read companies", err)
	}

	s.logger.Info("companies fetched", zap.Int("count", len(companies)))
	return companies, nil
}

func (s *PostgresStore) AllVacancies(ctx context.Context) ([]VacancyRow, error) {
	vacancies, err := s.queryVacancies(ctx, selectAllVacancies)
	if err != nil {
		return nil, errors.Storage("failed to query vacancies", err)
	}
	s.logger.Info("vacancies fetched", zap.Int("count", len(vacancies)))
	return vacancies, nil
}

// AverageSalary returns the mean representative salary rounded to two decimals, or 0 when
// no vacancy publishes a salary.
func (s *PostgresStore) AverageSalary(ctx context.Context) (float64, error) {
	var avg float64
	if err := s.conn.QueryRow(ctx, selectAverageSalary).Scan(&avg); err != nil {
		return 0, errors.Storage("failed to query average salary", err)
	}
	avg = math.Round(avg*100) / 100
	s.logger.Info("average salary", zap.Float64("value", avg))
	return avg, nil
}

func (s *PostgresStore) VacanciesWithHigherSalary(ctx context.Context) ([]VacancyRow, error) {
	avg, err := s.AverageSalary(ctx)
	if err != nil {
		return nil, err
	}

	vacancies, err := s.queryVacancies(ctx, selectVacanciesWithHigherSalary, avg)
	if err != nil {
		return nil, errors.Storage("failed to query vacancies above average", err)
	}
	s.logger.Info("vacancies above average fetched",
		zap.Int("count", len(vacancies)),
		zap.Float64("average", avg))
	return vacancies, nil
}

// VacanciesWithKeyword returns vacancies whose title contains any keyword, case-insensitively.
// An empty keyword list matches nothing.
func (s *PostgresStore) VacanciesWithKeyword(ctx context.Context, keywords []string) ([]VacancyRow, error) {
	var patterns []any
	var conditions []string
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		patterns = append(patterns, "%"+escapeLike(kw)+"%")
		conditions = append(conditions, fmt.Sprintf("v.title ILIKE $%d", len(patterns)))
	}
	if len(patterns) == 0 {
		return []VacancyRow{}, nil
	}

	query := vacancyProjection + "\nWHERE " + strings.Join(conditions, " OR ") + "\nORDER BY v.title"
	vacancies, err := s.queryVacancies(ctx, query, patterns...)
	if err != nil {
		return nil, errors.Storage("failed to search vacancies", err)
	}
	s.logger.Info("keyword search done",
		zap.Strings("keywords", keywords),
		zap.Int("count", len(vacancies)))
	return vacancies, nil
}

func (s *PostgresStore) DeleteEmployer(ctx context.Context, employerID int) error {
	var affected int64
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, deleteEmployer, employerID)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return errors.Storage(fmt.Sprintf("failed to delete employer %d", employerID), err)
	}
	if affected == 0 {
		return errors.NotFound(fmt.Sprintf("employer %d", employerID), nil)
	}
	s.logger.Info("employer deleted", zap.Int("employer_id", employerID))
	return nil
}

// Close closes the connection. Later calls return the first result.
func (s *PostgresStore) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close(ctx)
		s.logger.Info("database connection closed")
	})
	return s.closeErr
}

func (s *PostgresStore) queryVacancies(ctx context.Context, query string, args ...any) ([]VacancyRow, error) {
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vacancies := []VacancyRow{}
	for rows.Next() {
		var r VacancyRow
		if err := rows.Scan(&r.Company, &r.Title, &r.SalaryFrom, &r.SalaryTo, &r.URL); err != nil {
			return nil, err
		}
		vacancies = append(vacancies, r)
	}
	return vacancies, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
