package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narwhalmedia/watchlist/internal/catalog/codec"
	"github.com/narwhalmedia/watchlist/pkg/errors"
)

type cliTestEnv struct {
	baseDir    string
	filePath   string
	sqlitePath string
	snapshots  string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:    base,
		filePath:   filepath.Join(base, "titles.csv"),
		sqlitePath: filepath.Join(base, "watchlist.db"),
		snapshots:  filepath.Join(base, "snapshots"),
	}
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("WATCHLIST_STORAGE_BACKEND", "file")
	t.Setenv("WATCHLIST_STORAGE_FILE_PATH", env.filePath)
	t.Setenv("WATCHLIST_STORAGE_SQLITE_PATH", env.sqlitePath)
	t.Setenv("WATCHLIST_SNAPSHOT_DIR", env.snapshots)
	t.Setenv("WATCHLIST_LOGGER_LEVEL", "error")
	t.Setenv("WATCHLIST_TMDB_ACCESS_TOKEN", "")
	return env
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := execute(context.Background(), args, &stdout, &stderr)
	return stdout.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCLI(t, args...)
	require.NoError(t, err, "watchlist %s", strings.Join(args, " "))
	return out
}

func TestAddListAndProgress(t *testing.T) {
	env := setupCLITestEnv(t)

	mustRun(t, "add", "--name", "Dune", "--kind", "series", "--year", "2021", "--total", "10", "--progress", "3", "--rating", "8.4")
	mustRun(t, "add", "--name", "Arrival", "--year", "2016", "--genre", "Drama, Sci-Fi")

	out := mustRun(t, "list")
	assert.Contains(t, out, "Dune")
	assert.Contains(t, out, "Arrival")
	assert.Contains(t, out, "InProgress")

	out = mustRun(t, "progress", "inc", "Dune", "2021")
	assert.Contains(t, out, "Dune (2021): 4/10 InProgress")

	out = mustRun(t, "status", "Dune", "2021", "favorite")
	assert.Contains(t, out, "Favorite")

	out = mustRun(t, "list", "--status", "Favorite")
	assert.Contains(t, out, "Dune")
	assert.NotContains(t, out, "Arrival")

	data, err := os.ReadFile(env.filePath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), codec.BOM+codec.Header()))
	assert.Contains(t, string(data), `"Drama, Sci-Fi"`)
}

func TestAddDuplicateNeedsForce(t *testing.T) {
	setupCLITestEnv(t)

	mustRun(t, "add", "--name", "Solaris", "--year", "1972")
	_, err := runCLI(t, "add", "--name", "Solaris", "--year", "1972")
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))
	assert.Contains(t, err.Error(), "--force")

	mustRun(t, "add", "--name", "Solaris", "--year", "1972", "--force")
}

func TestEditRenamesAndDelete(t *testing.T) {
	setupCLITestEnv(t)

	mustRun(t, "add", "--name", "Solaris", "--year", "1972")
	out := mustRun(t, "edit", "Solaris", "1972", "--year", "2002", "--rating", "6.2")
	assert.Contains(t, out, "2002")
	assert.Contains(t, out, "6.2")

	_, err := runCLI(t, "delete", "Solaris", "1972")
	assert.True(t, errors.IsNotFound(err))

	out = mustRun(t, "delete", "Solaris", "2002")
	assert.Contains(t, out, "Deleted Solaris (2002)")

	out = mustRun(t, "list")
	assert.Contains(t, out, "No titles")
}

func TestInvalidInputIsRejected(t *testing.T) {
	setupCLITestEnv(t)

	_, err := runCLI(t, "add", "--name", "Old", "--year", "1850")
	assert.True(t, errors.IsValidation(err))

	_, err = runCLI(t, "add", "--name", "X", "--year", "2000", "--kind", "cartoon")
	assert.True(t, errors.IsValidation(err))

	_, err = runCLI(t, "delete", "X", "two thousand")
	assert.True(t, errors.IsValidation(err))

	_, err = runCLI(t, "--backend", "mongo", "list")
	require.Error(t, err)
}

func TestStatsAndSearch(t *testing.T) {
	setupCLITestEnv(t)

	mustRun(t, "add", "--name", "Twin Peaks", "--kind", "Series", "--year", "1990", "--total", "30", "--progress", "30", "--rating", "9")
	mustRun(t, "add", "--name", "Arrival", "--year", "2016", "--rating", "7", "--description", "Linguist meets heptapods")

	out := mustRun(t, "stats")
	assert.Contains(t, out, "Titles")
	assert.Contains(t, out, "8.0")
	assert.Contains(t, out, "100.0%")

	out = mustRun(t, "search", "HEPTAPOD")
	assert.Contains(t, out, "Arrival")
	assert.NotContains(t, out, "Twin Peaks")
}

func TestExportAndSnapshots(t *testing.T) {
	env := setupCLITestEnv(t)
	mustRun(t, "add", "--name", "Arrival", "--year", "2016")

	target := filepath.Join(env.baseDir, "out", "export.csv")
	mustRun(t, "export", "--output", target)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Arrival")

	out := mustRun(t, "snapshots")
	assert.Contains(t, out, "No snapshots")

	out = mustRun(t, "export", "--snapshot")
	assert.Contains(t, out, "Snapshot stored as titles-")

	out = mustRun(t, "snapshots")
	assert.Contains(t, out, "titles-")
}

func TestTransferToSQLite(t *testing.T) {
	setupCLITestEnv(t)

	mustRun(t, "add", "--name", "Arrival", "--year", "2016")
	mustRun(t, "add", "--name", "Dune", "--kind", "Series", "--year", "2021", "--total", "10", "--progress", "3")

	out := mustRun(t, "transfer", "--to", "sqlite")
	assert.Contains(t, out, "Copied 2 titles to sqlite")

	out = mustRun(t, "--backend", "sqlite", "list", "--sort", "year")
	assert.Contains(t, out, "Arrival")
	assert.Contains(t, out, "Dune")

	out = mustRun(t, "transfer", "--to", "sqlite")
	assert.Contains(t, out, "Copied 0 titles to sqlite (2 already present)")
}

func TestLookupWithoutToken(t *testing.T) {
	setupCLITestEnv(t)

	_, err := runCLI(t, "lookup", "Arrival")
	require.Error(t, err)
	assert.True(t, errors.IsInternal(err))
}

func TestLookupAdd(t *testing.T) {
	setupCLITestEnv(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/search/movie", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":329865}]}`))
	})
	mux.HandleFunc("/movie/329865", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":329865,"title":"Arrival","release_date":"2016-11-10","vote_average":7.6,
			"overview":"Linguist meets heptapods","genres":[{"id":18,"name":"Drama"},{"id":878,"name":"Science Fiction"}]}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	t.Setenv("WATCHLIST_TMDB_BASE_URL", server.URL)
	t.Setenv("WATCHLIST_TMDB_ACCESS_TOKEN", "test-token")
	t.Setenv("WATCHLIST_TMDB_BASE_DELAY", "0s")

	out := mustRun(t, "lookup", "Arrival")
	assert.Contains(t, out, "2016")

	out = mustRun(t, "list")
	assert.Contains(t, out, "No titles")

	out = mustRun(t, "lookup", "Arrival", "--add")
	assert.Contains(t, out, "Drama; Science Fiction")

	out = mustRun(t, "list")
	assert.Contains(t, out, "Arrival")
}
