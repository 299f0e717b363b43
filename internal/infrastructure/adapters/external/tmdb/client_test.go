package tmdb_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narwhalmedia/watchlist/internal/catalog/domain"
	"github.com/narwhalmedia/watchlist/internal/infrastructure/adapters/external/tmdb"
	"github.com/narwhalmedia/watchlist/pkg/cache"
	"github.com/narwhalmedia/watchlist/pkg/errors"
)

// fakeTMDB serves canned bodies per path and counts hits.
type fakeTMDB struct {
	t      *testing.T
	mu     sync.Mutex
	hits   map[string]int
	routes map[string]func(hit int) (int, string)
}

func newFakeTMDB(t *testing.T) *fakeTMDB {
	return &fakeTMDB{t: t, hits: map[string]int{}, routes: map[string]func(int) (int, string){}}
}

func (f *fakeTMDB) on(path string, status int, body string) {
	f.routes[path] = func(int) (int, string) { return status, body }
}

func (f *fakeTMDB) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	assert.Equal(f.t, "Bearer token", r.Header.Get("Authorization"))
	assert.Equal(f.t, "ru-RU", r.URL.Query().Get("language"))

	f.mu.Lock()
	f.hits[r.URL.Path]++
	hit := f.hits[r.URL.Path]
	route, ok := f.routes[r.URL.Path]
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	status, body := route(hit)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (f *fakeTMDB) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

type recordedWaits struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordedWaits) wait(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func newClient(t *testing.T, fake *fakeTMDB, waits *recordedWaits) *tmdb.Client {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client, err := tmdb.New(server.URL, "token", tmdb.WithWaiter(waits.wait))
	require.NoError(t, err)
	return client
}

const arrivalDetails = `{
	"id": 329865,
	"title": "Arrival",
	"overview": "Linguist meets heptapods.",
	"release_date": "2016-11-10",
	"genres": [{"id": 18, "name": "Drama"}, {"id": 878, "name": "Science Fiction"}],
	"vote_average": 7.64
}`

func TestNewRequiresAccessToken(t *testing.T) {
	_, err := tmdb.New("https://example.com", "  ")
	assert.True(t, errors.IsValidation(err))
}

func TestSearchByTitleMovie(t *testing.T) {
	fake := newFakeTMDB(t)
	fake.routes["/search/movie"] = func(int) (int, string) {
		return http.StatusOK, `{"page":1,"results":[{"id":329865},{"id":1}]}`
	}
	fake.on("/movie/329865", http.StatusOK, arrivalDetails)

	waits := &recordedWaits{}
	draft, err := newClient(t, fake, waits).SearchByTitle(context.Background(), "Arrival")
	require.NoError(t, err)

	assert.Equal(t, domain.Title{
		Name:        "Arrival",
		Kind:        domain.KindMovie,
		ReleaseYear: 2016,
		Genre:       "Drama, Science Fiction",
		UserRating:  7.6,
		Status:      domain.StatusPlanned,
		Progress:    0,
		TotalUnits:  1,
		Description: "Linguist meets heptapods.",
	}, draft)
	assert.Zero(t, fake.count("/search/tv"))
	assert.Empty(t, waits.delays)
}

func TestSearchByTitleFallsBackToSeries(t *testing.T) {
	fake := newFakeTMDB(t)
	fake.on("/search/movie", http.StatusOK, `{"page":1,"results":[]}`)
	fake.on("/search/tv", http.StatusOK, `{"page":1,"results":[{"id":1399}]}`)
	fake.on("/tv/1399", http.StatusOK, `{
		"id": 1399,
		"name": "Game of Thrones",
		"first_air_date": "2011-04-17",
		"genres": [{"id": 10765, "name": "Sci-Fi & Fantasy"}],
		"vote_average": 8.4,
		"number_of_seasons": 8
	}`)

	draft, err := newClient(t, fake, &recordedWaits{}).SearchByTitle(context.Background(), "Thrones")
	require.NoError(t, err)

	assert.Equal(t, domain.KindSeries, draft.Kind)
	assert.Equal(t, "Game of Thrones", draft.Name)
	assert.Equal(t, 2011, draft.ReleaseYear)
	assert.Equal(t, 80, draft.TotalUnits)
	assert.Equal(t, domain.StatusPlanned, draft.Status)
	assert.Empty(t, draft.Description)
}

func TestSeriesDraftDefaults(t *testing.T) {
	fake := newFakeTMDB(t)
	fake.on("/search/movie", http.StatusOK, `{"results":[]}`)
	fake.on("/search/tv", http.StatusOK, `{"results":[{"id":7}]}`)
	fake.on("/tv/7", http.StatusOK, `{"id":7,"name":"Pilot Only","first_air_date":null,"number_of_seasons":0,"genres":null}`)

	draft, err := newClient(t, fake, &recordedWaits{}).SearchByTitle(context.Background(), "pilot")
	require.NoError(t, err)
	assert.Equal(t, 1, draft.TotalUnits)
	assert.Equal(t, 0, draft.ReleaseYear)
	assert.Empty(t, draft.Genre)
}

func TestSearchByTitleNotFound(t *testing.T) {
	fake := newFakeTMDB(t)
	fake.on("/search/movie", http.StatusOK, `{"page":1,"results":[]}`)
	fake.on("/search/tv", http.StatusOK, `{"page":1,"results":[]}`)

	waits := &recordedWaits{}
	_, err := newClient(t, fake, waits).SearchByTitle(context.Background(), "qwertyuiop")
	assert.True(t, errors.IsNotFound(err), "got %v", err)
	assert.False(t, errors.IsNetworkFailure(err))
	assert.Equal(t, 1, fake.count("/search/movie"))
	assert.Equal(t, 1, fake.count("/search/tv"))
	assert.Empty(t, waits.delays)
}

func TestSearchByTitleSucceedsOnThirdAttempt(t *testing.T) {
	fake := newFakeTMDB(t)
	fake.routes["/search/movie"] = func(hit int) (int, string) {
		if hit < 3 {
			return http.StatusServiceUnavailable, `{"status_code":503}`
		}
		return http.StatusOK, `{"results":[{"id":329865}]}`
	}
	fake.on("/movie/329865", http.StatusOK, arrivalDetails)

	waits := &recordedWaits{}
	draft, err := newClient(t, fake, waits).SearchByTitle(context.Background(), "Arrival")
	require.NoError(t, err)
	assert.Equal(t, "Arrival", draft.Name)
	assert.Equal(t, 3, fake.count("/search/movie"))
	assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second}, waits.delays)
}

func TestSearchByTitleExhaustsRetries(t *testing.T) {
	fake := newFakeTMDB(t)
	fake.on("/search/movie", http.StatusInternalServerError, `{}`)

	waits := &recordedWaits{}
	_, err := newClient(t, fake, waits).SearchByTitle(context.Background(), "Arrival")
	require.Error(t, err)
	assert.True(t, errors.IsNetworkFailure(err), "got %v", err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Equal(t, 3, fake.count("/search/movie"))
	assert.Zero(t, fake.count("/search/tv"))
	assert.Len(t, waits.delays, 2)
}

func TestConnectionFailuresAreRetried(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	waits := &recordedWaits{}
	client, err := tmdb.New(server.URL, "token",
		tmdb.WithWaiter(waits.wait),
		tmdb.WithRetryPolicy(4, time.Second))
	require.NoError(t, err)

	_, err = client.SearchByID(context.Background(), 42)
	assert.True(t, errors.IsNetworkFailure(err), "got %v", err)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, waits.delays)
}

func TestCancellationDuringBackoff(t *testing.T) {
	fake := newFakeTMDB(t)
	fake.on("/search/movie", http.StatusBadGateway, `{}`)

	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	ctx, cancel := context.WithCancel(context.Background())
	client, err := tmdb.New(server.URL, "token", tmdb.WithWaiter(func(ctx context.Context, d time.Duration) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	}))
	require.NoError(t, err)

	_, err = client.SearchByTitle(ctx, "Arrival")
	assert.True(t, errors.IsCancelled(err), "got %v", err)
	assert.False(t, errors.IsNetworkFailure(err))
	assert.Equal(t, 1, fake.count("/search/movie"))
}

func TestDefaultWaiterHonoursCancellation(t *testing.T) {
	fake := newFakeTMDB(t)
	fake.on("/search/movie", http.StatusBadGateway, `{}`)
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client, err := tmdb.New(server.URL, "token", tmdb.WithRetryPolicy(3, time.Hour))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = client.SearchByTitle(ctx, "Arrival")
	assert.True(t, errors.IsCancelled(err), "got %v", err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSearchByIDFallsBackOnNotFound(t *testing.T) {
	fake := newFakeTMDB(t)
	fake.on("/tv/1399", http.StatusOK, `{"id":1399,"name":"Game of Thrones","first_air_date":"2011-04-17","number_of_seasons":8}`)

	waits := &recordedWaits{}
	draft, err := newClient(t, fake, waits).SearchByID(context.Background(), 1399)
	require.NoError(t, err)
	assert.Equal(t, domain.KindSeries, draft.Kind)
	assert.Equal(t, 1, fake.count("/movie/1399"))
	assert.Empty(t, waits.delays)
}

func TestSearchByIDNotFound(t *testing.T) {
	fake := newFakeTMDB(t)

	_, err := newClient(t, fake, &recordedWaits{}).SearchByID(context.Background(), 5)
	assert.True(t, errors.IsNotFound(err), "got %v", err)
	assert.Equal(t, 1, fake.count("/movie/5"))
	assert.Equal(t, 1, fake.count("/tv/5"))
}

func TestInvalidInput(t *testing.T) {
	client, err := tmdb.New("https://example.com", "token")
	require.NoError(t, err)

	_, err = client.SearchByTitle(context.Background(), "   ")
	assert.True(t, errors.IsValidation(err))

	_, err = client.SearchByID(context.Background(), 0)
	assert.True(t, errors.IsValidation(err))
}

func TestCachedDraftsSkipTheNetwork(t *testing.T) {
	fake := newFakeTMDB(t)
	fake.on("/search/movie", http.StatusOK, `{"results":[{"id":329865}]}`)
	fake.on("/movie/329865", http.StatusOK, arrivalDetails)

	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client, err := tmdb.New(server.URL, "token",
		tmdb.WithWaiter((&recordedWaits{}).wait),
		tmdb.WithCache(cache.NewMemory(), time.Hour))
	require.NoError(t, err)

	first, err := client.SearchByTitle(context.Background(), "Arrival")
	require.NoError(t, err)
	second, err := client.SearchByTitle(context.Background(), "  arrival ")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, fake.count("/search/movie"))
	assert.Equal(t, 1, fake.count("/movie/329865"))

	_, err = client.SearchByID(context.Background(), 329865)
	require.NoError(t, err)
	assert.Equal(t, 2, fake.count("/movie/329865"))
}

func TestNotFoundIsNotCached(t *testing.T) {
	fake := newFakeTMDB(t)

	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client, err := tmdb.New(server.URL, "token", tmdb.WithCache(cache.NewMemory(), time.Hour))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = client.SearchByID(context.Background(), 5)
		assert.True(t, errors.IsNotFound(err))
	}
	assert.Equal(t, 2, fake.count("/movie/5"))
}
