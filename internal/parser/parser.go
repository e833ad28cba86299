// Package parser turns loosely-typed hh.ru API records into domain models.
//
// Records that cannot be coerced are logged and skipped; a bad record never aborts the batch.
package parser

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"db-vacancy-manager/internal/errors"
	"db-vacancy-manager/internal/models"
)

// ParseEmployers converts raw employer items into Employers. data is expected to be a
// []map[string]any or a []any of maps; anything else yields an empty slice.
func ParseEmployers(data any, logger *zap.Logger) []models.Employer {
	records, ok := asRecords(data)
	if !ok || len(records) == 0 {
		logger.Warn("received invalid employer data", zap.String("type", fmt.Sprintf("%T", data)))
		return []models.Employer{}
	}
	logger.Info("parsing employers", zap.Int("received", len(records)))

	employers := make([]models.Employer, 0, len(records))
	for i, raw := range records {
		employer, err := parseEmployer(raw)
		if err != nil {
			logger.Error("skipping employer",
				zap.Int("index", i),
				zap.Any("id", lookup(raw, "id")),
				zap.Error(err))
			continue
		}
		employers = append(employers, employer)
	}

	logger.Info(fmt.Sprintf("parsed %d/%d employers", len(employers), len(records)))
	return employers
}

// ParseVacancies converts raw vacancy items into Vacancies. Input handling matches
// ParseEmployers.
func ParseVacancies(data any, logger *zap.Logger) []models.Vacancy {
	records, ok := asRecords(data)
	if !ok || len(records) == 0 {
		logger.Warn("received invalid vacancy data", zap.String("type", fmt.Sprintf("%T", data)))
		return []models.Vacancy{}
	}
	logger.Info("parsing vacancies", zap.Int("received", len(records)))

	vacancies := make([]models.Vacancy, 0, len(records))
	for i, raw := range records {
		vacancy, err := parseVacancy(raw)
		if err != nil {
			logger.Error("skipping vacancy",
				zap.Int("index", i),
				zap.Any("id", lookup(raw, "id")),
				zap.Error(err))
			continue
		}
		vacancies = append(vacancies, vacancy)
	}

	logger.Info(fmt.Sprintf("parsed %d/%d vacancies", len(vacancies), len(records)))
	return vacancies
}

func parseEmployer(raw any) (models.Employer, error) {
	item, ok := raw.(map[string]any)
	if !ok {
		return models.Employer{}, errors.Malformed(fmt.Sprintf("record is %T, not an object", raw), nil)
	}

	id, err := requiredInt(item, "id")
	if err != nil {
		return models.Employer{}, err
	}
	name, err := optionalString(item, "name")
	if err != nil {
		return models.Employer{}, err
	}
	openVacancies, err := optionalInt(item, "open_vacancies")
	if err != nil {
		return models.Employer{}, err
	}
	url, err := optionalString(item, "alternate_url")
	if err != nil {
		return models.Employer{}, err
	}

	return models.NewEmployer(models.EmployerInput{
		ID:            &id,
		Name:          name,
		OpenVacancies: openVacancies,
		URL:           url,
	}), nil
}

func parseVacancy(raw any) (models.Vacancy, error) {
	item, ok := raw.(map[string]any)
	if !ok {
		return models.Vacancy{}, errors.Malformed(fmt.Sprintf("record is %T, not an object", raw), nil)
	}

	id, err := requiredInt(item, "id")
	if err != nil {
		return models.Vacancy{}, err
	}
	title, err := optionalString(item, "name")
	if err != nil {
		return models.Vacancy{}, err
	}

	salary, err := nested(item, "salary")
	if err != nil {
		return models.Vacancy{}, err
	}
	salaryFrom, err := optionalInt(salary, "from")
	if err != nil {
		return models.Vacancy{}, err
	}
	salaryTo, err := optionalInt(salary, "to")
	if err != nil {
		return models.Vacancy{}, err
	}

	employer, err := nested(item, "employer")
	if err != nil {
		return models.Vacancy{}, err
	}
	employerID, err := requiredInt(employer, "id")
	if err != nil {
		return models.Vacancy{}, fmt.Errorf("employer: %w", err)
	}

	area, err := nested(item, "area")
	if err != nil {
		return models.Vacancy{}, err
	}
	city, err := optionalString(area, "name")
	if err != nil {
		return models.Vacancy{}, err
	}

	url, err := optionalString(item, "alternate_url")
	if err != nil {
		return models.Vacancy{}, err
	}

	return models.NewVacancy(models.VacancyInput{
		ID:         &id,
		Title:      title,
		SalaryFrom: salaryFrom,
		SalaryTo:   salaryTo,
		EmployerID: &employerID,
		City:       city,
		URL:        url,
	}), nil
}

func asRecords(data any) ([]any, bool) {
	switch v := data.(type) {
	case []any:
		return v, true
	case []map[string]any:
		records := make([]any, len(v))
		for i, m := range v {
			records[i] = m
		}
		return records, true
	default:
		return nil, false
	}
}

func lookup(raw any, key string) any {
	if item, ok := raw.(map[string]any); ok {
		return item[key]
	}
	return nil
}

// nested returns the sub-object under key; absent and null are an empty object
func nested(item map[string]any, key string) (map[string]any, error) {
	v, ok := item[key]
	if !ok || v == nil {
		return map[string]any{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, errors.Malformed(fmt.Sprintf("%q is %T, not an object", key, v), nil)
	}
	return m, nil
}

func requiredInt(item map[string]any, key string) (int, error) {
	v, ok := item[key]
	if !ok || v == nil {
		return 0, errors.Malformed(fmt.Sprintf("%q is missing", key), nil)
	}
	n, err := ToInt(v)
	if err != nil {
		return 0, errors.Malformed(fmt.Sprintf("%q is not an integer", key), err)
	}
	return n, nil
}

func optionalInt(item map[string]any, key string) (*int, error) {
	v, ok := item[key]
	if !ok || v == nil {
		return nil, nil
	}
	if _, isString := v.(string); isString {
		return nil, errors.Malformed(fmt.Sprintf("%q must be a number", key), nil)
	}
	n, err := ToInt(v)
	if err != nil {
		return nil, errors.Malformed(fmt.Sprintf("%q is not an integer", key), err)
	}
	return &n, nil
}

func optionalString(item map[string]any, key string) (string, error) {
	v, ok := item[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.Malformed(fmt.Sprintf("%q is %T, not a string", key, v), nil)
	}
	return s, nil
}

// ToInt coerces a JSON-decoded value to int. Decimal strings, integral numbers and
// json.Number are accepted; values must fit the store's 32-bit INTEGER columns.
func ToInt(v any) (int, error) {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) || x != math.Trunc(x) {
			return 0, fmt.Errorf("%v is not a whole number", x)
		}
		if x > math.MaxInt32 || x < math.MinInt32 {
			return 0, fmt.Errorf("%v is out of range", x)
		}
		n = int64(x)
	case json.Number:
		if parsed, err := strconv.ParseInt(x.String(), 10, 64); err == nil {
			n = parsed
			break
		}
		f, err := x.Float64()
		if err != nil {
			return 0, err
		}
		return ToInt(f)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, fmt.Errorf("empty string")
		}
		parsed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, err
		}
		n = parsed
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}

	if n > math.MaxInt32 || n < math.MinInt32 {
		return 0, fmt.Errorf("%d is out of range", n)
	}
	return int(n), nil
}
