package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeDatasetNotFound, "dataset abc not found")
	require.NotNil(t, err)
	assert.Equal(t, ErrCodeDatasetNotFound, err.Code)
	assert.Equal(t, "dataset abc not found", err.Message)
	assert.Contains(t, err.Error(), "DS_001")
	assert.Contains(t, err.Error(), "dataset abc not found")
	assert.NotEmpty(t, err.Stack)
}

func TestError_WithDetail(t *testing.T) {
	base := InvalidParam("ic50 must be positive")
	detailed := base.WithDetail("ic50=-3")

	assert.Empty(t, base.Detail, "WithDetail must not mutate the receiver")
	assert.Equal(t, "ic50=-3", detailed.Detail)
	assert.Contains(t, detailed.Error(), "ic50=-3")

	var nilErr *AppError
	assert.Nil(t, nilErr.WithDetail("x"))
}

func TestWrap(t *testing.T) {
	t.Run("nil_passthrough", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, ErrCodeDatabaseError, "query failed"))
	})

	t.Run("wraps_cause", func(t *testing.T) {
		cause := stderrors.New("connection refused")
		err := Wrap(cause, ErrCodeDatabaseError, "query failed")
		require.NotNil(t, err)
		assert.Equal(t, ErrCodeDatabaseError, err.Code)
		assert.True(t, stderrors.Is(err, cause))
	})

	t.Run("preserves_code_when_unknown", func(t *testing.T) {
		inner := New(ErrCodeDatasetSchemaInvalid, "missing columns")
		err := Wrap(inner, CodeUnknown, "load failed")
		assert.Equal(t, ErrCodeDatasetSchemaInvalid, err.Code)
	})
}

func TestIsCode(t *testing.T) {
	inner := New(ErrCodeCompoundNonPositiveIC, "IC50 must be positive")
	wrapped := Wrap(inner, ErrCodeDatasetIngestFailed, "row rejected")
	doubleWrapped := fmt.Errorf("outer: %w", wrapped)

	assert.True(t, IsCode(doubleWrapped, ErrCodeCompoundNonPositiveIC))
	assert.True(t, IsCode(doubleWrapped, ErrCodeDatasetIngestFailed))
	assert.False(t, IsCode(doubleWrapped, ErrCodeDatasetNotFound))
	assert.False(t, IsCode(nil, ErrCodeDatasetNotFound))
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"generic_not_found", NotFound("gone"), true},
		{"dataset_not_found", New(ErrCodeDatasetNotFound, "x"), true},
		{"compound_not_found", New(ErrCodeCompoundNotFound, "x"), true},
		{"target_empty", New(ErrCodeSourceTargetEmpty, "x"), true},
		{"wrapped", Wrap(New(ErrCodeDatasetNotFound, "x"), ErrCodeInternal, "y"), true},
		{"internal", Internal("boom"), false},
		{"stdlib", stderrors.New("plain"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNotFound(tt.err))
		})
	}
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, CodeUnknown, GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrCodeCacheError, GetCode(New(ErrCodeCacheError, "x")))
}

func TestHTTPStatusForCode(t *testing.T) {
	assert.Equal(t, 404, HTTPStatusForCode(ErrCodeDatasetNotFound))
	assert.Equal(t, 400, HTTPStatusForCode(ErrCodeDatasetSchemaInvalid))
	assert.Equal(t, 429, HTTPStatusForCode(ErrCodeSourceRateLimited))
	assert.Equal(t, 500, HTTPStatusForCode(ErrorCode("NOPE_999")))
}

func TestModuleForCode(t *testing.T) {
	assert.Equal(t, "DS", ModuleForCode(ErrCodeDatasetNotFound))
	assert.Equal(t, "CMP", ModuleForCode(ErrCodeCompoundInvalid))
	assert.Equal(t, "SRC", ModuleForCode(ErrCodeSourceParseError))
	assert.Equal(t, "UNKNOWN", ModuleForCode(ErrorCode("")))
}

func TestClientServerErrorClassification(t *testing.T) {
	assert.True(t, IsClientError(ErrCodeDatasetFilterInvalid))
	assert.False(t, IsServerError(ErrCodeDatasetFilterInvalid))
	assert.True(t, IsServerError(ErrCodeSourceUnavailable))
}
