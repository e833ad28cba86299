package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"db-vacancy-manager/internal/config"
	"db-vacancy-manager/pkg/httpclient"
)

type fakeHH struct {
	mu       sync.Mutex
	requests []*http.Request

	// employer name -> JSON items; a missing name answers 500
	employers map[string]string
	// vacancy pages per employer id; a page past the slice is empty
	pages map[string]int
	// failPage makes that vacancy page answer 500
	failPage map[string]int
	down     bool
}

func (f *fakeHH) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Clone(context.Background()))
	f.mu.Unlock()

	if f.down {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
		return
	}
	q := r.URL.Query()

	switch r.URL.Path {
	case "/employers":
		text := q.Get("text")
		if text == "" {
			fmt.Fprint(w, `{"items": []}`)
			return
		}
		items, ok := f.employers[text]
		if !ok {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, `{"items": %s}`, items)
	case "/vacancies":
		id := q.Get("employer_id")
		page, _ := strconv.Atoi(q.Get("page"))
		if fail, ok := f.failPage[id]; ok && fail == page {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		if page >= f.pages[id] {
			fmt.Fprint(w, `{"items": []}`)
			return
		}
		fmt.Fprintf(w, `{"items": [{"id": "%s%02d", "name": "Vacancy %d"}, {"id": "%s%02d9", "name": "Vacancy %d bis"}]}`,
			id, page, page, id, page, page)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeHH) vacancyRequests() []*http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*http.Request
	for _, r := range f.requests {
		if r.URL.Path == "/vacancies" {
			out = append(out, r)
		}
	}
	return out
}

func newSource(t *testing.T, fake *fakeHH, employers ...string) *HeadHunterSource {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	cfg := config.DefaultConfig().API
	cfg.BaseURL = server.URL
	if len(employers) > 0 {
		cfg.Employers = employers
	}
	client := httpclient.NewClient(5*time.Second, httpclient.WithHeader("User-Agent", cfg.UserAgent))
	return NewHeadHunterSource(client, cfg, zaptest.NewLogger(t))
}

func TestGetEmployers_TakesFirstMatchAndSkipsFailures(t *testing.T) {
	fake := &fakeHH{employers: map[string]string{
		"Яндекс": `[{"id": "1740", "name": "Яндекс"}, {"id": "999", "name": "Яндекс Такси"}]`,
		"VK":     `[{"id": "15478", "name": "VK"}]`,
		"Nobody": `[]`,
	}}
	source := newSource(t, fake, "Яндекс", "Broken", "Nobody", " ", "VK")

	employers := source.GetEmployers(context.Background())

	require.Len(t, employers, 2)
	assert.Equal(t, "1740", fmt.Sprint(employers[0]["id"]))
	assert.Equal(t, "15478", fmt.Sprint(employers[1]["id"]))

	var searched []string
	for _, r := range fake.requests {
		if r.URL.Path != "/employers" || r.URL.Query().Get("text") == "" {
			continue
		}
		q := r.URL.Query()
		assert.Equal(t, "true", q.Get("only_with_vacancies"))
		assert.Equal(t, "1", q.Get("per_page"))
		assert.Equal(t, "db-vacancy-manager", r.Header.Get("User-Agent"))
		searched = append(searched, q.Get("text"))
	}
	assert.Equal(t, []string{"Яндекс", "Broken", "Nobody", "VK"}, searched)
}

func TestGetEmployers_UnreachableReturnsEmpty(t *testing.T) {
	fake := &fakeHH{down: true}
	source := newSource(t, fake)

	employers := source.GetEmployers(context.Background())

	assert.NotNil(t, employers)
	assert.Empty(t, employers)
	assert.Len(t, fake.requests, 1, "only the connectivity check is issued")
}

func TestCheckConnection(t *testing.T) {
	assert.NoError(t, newSource(t, &fakeHH{}).CheckConnection(context.Background()))
	assert.Error(t, newSource(t, &fakeHH{down: true}).CheckConnection(context.Background()))
}

func TestGetVacancies_StopsOnEmptyPage(t *testing.T) {
	fake := &fakeHH{pages: map[string]int{"1740": 3}}
	source := newSource(t, fake)

	vacancies := source.GetVacancies(context.Background(), 1740)

	assert.Len(t, vacancies, 6)
	requests := fake.vacancyRequests()
	require.Len(t, requests, 4)
	for i, r := range requests {
		q := r.URL.Query()
		assert.Equal(t, "1740", q.Get("employer_id"))
		assert.Equal(t, strconv.Itoa(i), q.Get("page"))
		assert.Equal(t, "100", q.Get("per_page"))
	}
}

func TestGetVacancies_StopsAtPageCap(t *testing.T) {
	fake := &fakeHH{pages: map[string]int{"1": 50}}
	source := newSource(t, fake)

	vacancies := source.GetVacancies(context.Background(), 1)

	assert.Len(t, vacancies, 40)
	requests := fake.vacancyRequests()
	require.Len(t, requests, 20)
	assert.Equal(t, "19", requests[19].URL.Query().Get("page"))
}

func TestGetVacancies_FailureKeepsCollectedPages(t *testing.T) {
	fake := &fakeHH{
		pages:    map[string]int{"7": 10},
		failPage: map[string]int{"7": 2},
	}
	source := newSource(t, fake)

	vacancies := source.GetVacancies(context.Background(), 7)

	assert.Len(t, vacancies, 4)
	assert.Len(t, fake.vacancyRequests(), 3)
}

func TestNewHeadHunterSource_ClampsPaging(t *testing.T) {
	cfg := config.DefaultConfig().API
	cfg.PerPage = 500
	cfg.MaxPages = 0

	source := NewHeadHunterSource(httpclient.NewClient(time.Second), cfg, zaptest.NewLogger(t))

	assert.Equal(t, 100, source.perPage)
	assert.Equal(t, 20, source.maxPages)
}
