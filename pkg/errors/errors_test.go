package errors_test

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/narwhalmedia/watchlist/pkg/errors"
)

func TestPredicates(t *testing.T) {
	cause := stderrors.New("disk gone")

	cases := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"validation", errors.Validation("bad year"), errors.IsValidation},
		{"not found", errors.NotFound("nothing"), errors.IsNotFound},
		{"conflict", errors.Conflict("dup"), errors.IsConflict},
		{"storage unavailable", errors.StorageUnavailable("open", cause), errors.IsStorageUnavailable},
		{"storage corrupt", errors.StorageCorrupt("line 3", cause), errors.IsStorageCorrupt},
		{"network failure", errors.NetworkFailure("tmdb", cause), errors.IsNetworkFailure},
		{"cancelled", errors.Cancelled("lookup", context.Canceled), errors.IsCancelled},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.check(tc.err))
			assert.True(t, tc.check(fmt.Errorf("outer: %w", tc.err)))
		})
	}

	assert.False(t, errors.IsNotFound(errors.Validation("x")))
	assert.False(t, errors.IsValidation(nil))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := errors.NetworkFailure("tmdb request failed after 3 attempts", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, errors.ErrorTypeNetworkFailure, errors.TypeOf(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestIsCancelledRecognisesContextErrors(t *testing.T) {
	assert.True(t, errors.IsCancelled(fmt.Errorf("wait: %w", context.Canceled)))
	assert.False(t, errors.IsCancelled(context.DeadlineExceeded))
}

func TestIsDuplicateError(t *testing.T) {
	assert.True(t, errors.IsDuplicateError(stderrors.New("UNIQUE constraint failed: titles.name, titles.release_year")))
	assert.True(t, errors.IsDuplicateError(stderrors.New(`ERROR: duplicate key value violates unique constraint "idx_titles_name_year"`)))
	assert.False(t, errors.IsDuplicateError(stderrors.New("syntax error")))
	assert.False(t, errors.IsDuplicateError(nil))
}
