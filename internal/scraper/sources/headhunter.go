package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"db-vacancy-manager/internal/config"
	"db-vacancy-manager/internal/errors"
	"db-vacancy-manager/pkg/httpclient"
)

// HeadHunterSource implements VacancyAPI for the hh.ru public API
type HeadHunterSource struct {
	client    *httpclient.Client
	baseURL   string
	employers []string
	perPage   int
	maxPages  int
	logger    *zap.Logger
}

// NewHeadHunterSource creates a source from the api section of the config. The page size and
// page cap are clamped to the platform limits.
func NewHeadHunterSource(client *httpclient.Client, cfg config.APIConfig, logger *zap.Logger) *HeadHunterSource {
	perPage := cfg.PerPage
	if perPage < 1 || perPage > config.MaxPerPage {
		perPage = config.MaxPerPage
	}
	maxPages := cfg.MaxPages
	if maxPages < 1 || maxPages > config.MaxPages {
		maxPages = config.MaxPages
	}

	return &HeadHunterSource{
		client:    client,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		employers: cfg.Employers,
		perPage:   perPage,
		maxPages:  maxPages,
		logger:    logger,
	}
}

func (h *HeadHunterSource) GetName() string {
	return "hh.ru"
}

func (h *HeadHunterSource) CheckConnection(ctx context.Context) error {
	resp, err := h.client.Get(ctx, h.baseURL+"/employers", nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (h *HeadHunterSource) GetEmployers(ctx context.Context) []map[string]any {
	employers := []map[string]any{}

	if err := h.CheckConnection(ctx); err != nil {
		h.logger.Error("hh.ru API is unreachable", zap.Error(err))
		return employers
	}
	h.logger.Info("connected to hh.ru API")

	for _, name := range h.employers {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		items, err := h.fetchItems(ctx, "/employers", url.Values{
			"text":                {name},
			"only_with_vacancies": {"true"},
			"per_page":            {"1"},
		})
		if err != nil {
			h.logger.Error("failed to fetch employer", zap.String("name", name), zap.Error(err))
			continue
		}
		if len(items) == 0 {
			h.logger.Warn("employer not found", zap.String("name", name))
			continue
		}

		employers = append(employers, items[0])
		h.logger.Info("employer fetched", zap.String("name", name), zap.Any("id", items[0]["id"]))
	}

	h.logger.Info(fmt.Sprintf("fetched %d/%d employers", len(employers), len(h.employers)))
	return employers
}

func (h *HeadHunterSource) GetVacancies(ctx context.Context, employerID int) []map[string]any {
	vacancies := []map[string]any{}

	for page := 0; page < h.maxPages; page++ {
		items, err := h.fetchItems(ctx, "/vacancies", url.Values{
			"employer_id": {strconv.Itoa(employerID)},
			"page":        {strconv.Itoa(page)},
			"per_page":    {strconv.Itoa(h.perPage)},
		})
		if err != nil {
			h.logger.Error("failed to fetch vacancies page",
				zap.Int("employer_id", employerID),
				zap.Int("page", page),
				zap.Error(err))
			break
		}
		if len(items) == 0 {
			break
		}
		vacancies = append(vacancies, items...)
	}

	h.logger.Info("vacancies fetched", zap.Int("employer_id", employerID), zap.Int("count", len(vacancies)))
	return vacancies
}

func (h *HeadHunterSource) fetchItems(ctx context.Context, path string, params url.Values) ([]map[string]any, error) {
	resp, err := h.client.Get(ctx, h.baseURL+path, params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var response itemsResponse
	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&response); err != nil {
		return nil, errors.Upstream("failed to decode "+path+" response", err)
	}
	return response.Items, nil
}

// NewHeadHunterFromConfig builds the HTTP client and the source in one step. The returned
// func releases the client.
func NewHeadHunterFromConfig(cfg config.APIConfig, logger *zap.Logger) (*HeadHunterSource, func()) {
	client := httpclient.NewClient(cfg.RequestTimeout,
		httpclient.WithHeader("User-Agent", cfg.UserAgent),
		httpclient.WithRateLimit(cfg.RateLimit),
	)
	return NewHeadHunterSource(client, cfg, logger), client.Close
}
