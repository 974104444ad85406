package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardError_Format(t *testing.T) {
	err := NewCatalogEmptyError("postgres")

	assert.Equal(t, "StandardError[CATALOG_EMPTY]: Savings catalog is empty", err.Error())
	assert.False(t, err.Retryable)
	assert.False(t, err.Timestamp.IsZero())
}

func TestAsStandardError_ThroughWrapping(t *testing.T) {
	cause := stderrors.New("connection refused")
	wrapped := fmt.Errorf("load products: %w", NewCatalogLoadFailedError("postgres", cause))

	stdErr, ok := AsStandardError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrCodeCatalogLoadFailed, stdErr.Code)
	assert.True(t, HasCode(wrapped, ErrCodeCatalogLoadFailed))
	assert.False(t, HasCode(wrapped, ErrCodeCatalogEmpty))
	assert.True(t, stderrors.Is(wrapped, cause))

	_, ok = AsStandardError(cause)
	assert.False(t, ok)
}

func TestConstructors_MetadataAndRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       *StandardError
		code      ErrorCode
		retryable bool
		metaKey   string
	}{
		{name: "file not found", err: NewFileNotFoundError("persons.csv", stderrors.New("no such file")), code: ErrCodeFileNotFound, metaKey: "path"},
		{name: "unsupported", err: NewUnsupportedFileFormatError("persons.json"), code: ErrCodeUnsupportedFileFormat, metaKey: "path"},
		{name: "missing columns", err: NewMissingColumnsError("p.csv", []string{"loyer"}), code: ErrCodeMissingColumns, metaKey: "missingColumns"},
		{name: "invalid record", err: NewInvalidRecordError("p.csv", 3, stderrors.New("bad age")), code: ErrCodeInvalidRecord, metaKey: "row"},
		{name: "catalog load", err: NewCatalogLoadFailedError("elasticsearch", stderrors.New("503")), code: ErrCodeCatalogLoadFailed, retryable: true, metaKey: "source"},
		{name: "search", err: NewSearchQueryFailedError("savings-products", stderrors.New("boom")), code: ErrCodeSearchQueryFailed, retryable: true},
		{name: "suggestion input", err: NewInvalidSuggestionInputError("person.name: required"), code: ErrCodeInvalidSuggestionInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.retryable, tt.err.Retryable)
			if tt.metaKey != "" {
				assert.Contains(t, tt.err.Metadata, tt.metaKey)
			}
		})
	}
}

func TestMissingColumnsDetails(t *testing.T) {
	err := NewMissingColumnsError("persons.csv", []string{"loyer", "objectif"})
	assert.Contains(t, err.Details, "loyer, objectif")
}

func TestConvertToBPMNError(t *testing.T) {
	t.Run("retryable technical error", func(t *testing.T) {
		bpmnErr := ConvertToBPMNError(NewDatabaseConnectionFailedError(stderrors.New("dial tcp")))

		assert.Equal(t, "DATABASE_CONNECTION_FAILED", bpmnErr.Code)
		assert.Equal(t, 3, bpmnErr.Retries)
		assert.True(t, bpmnErr.Retryable)
		assert.Equal(t, "DATABASE_CONNECTION_FAILED", bpmnErr.ErrorVariables["originalErrorCode"])
	})

	t.Run("business error is never retried", func(t *testing.T) {
		bpmnErr := ConvertToBPMNError(NewInvalidSuggestionInputError("missing person"))

		assert.Equal(t, 0, bpmnErr.Retries)
		vars := bpmnErr.ToErrorVariables()
		assert.Equal(t, "INVALID_SUGGESTION_INPUT", vars["errorCode"])
		assert.Equal(t, "missing person", vars["errorDetails"])
		assert.Equal(t, false, vars["retryable"])
	})

	t.Run("retryable code marked non retryable", func(t *testing.T) {
		stdErr := NewQueryTimeoutError("savings_products")
		stdErr.Retryable = false
		assert.Equal(t, 0, ConvertToBPMNError(stdErr).Retries)
	})

	t.Run("unmapped code falls back to itself", func(t *testing.T) {
		stdErr := NewBusinessRuleError("goal unreachable", "")
		assert.Equal(t, "BUSINESS_RULE_VIOLATION", ConvertToBPMNError(stdErr).Code)
	})

	t.Run("metadata becomes error variables", func(t *testing.T) {
		bpmnErr := ConvertToBPMNError(NewInvalidRecordError("p.csv", 7, stderrors.New("age")))
		assert.Equal(t, 7, bpmnErr.ToErrorVariables()["row"])
	})
}

func TestRetryPolicy(t *testing.T) {
	assert.Equal(t, 2, GetRetryCount(ErrCodeQueryTimeout))
	assert.Equal(t, 3, GetRetryCount(ErrCodeSearchQueryFailed))
	assert.Equal(t, 0, GetRetryCount(ErrCodeMissingColumns))
	assert.True(t, IsRetryableErrorCode(ErrCodeCatalogLoadFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeRankingFailed))
}

func TestGetErrorCategory(t *testing.T) {
	tests := map[ErrorCode]string{
		ErrCodeFileNotFound:             "DATASET",
		ErrCodeMissingColumns:           "DATASET",
		ErrCodeInvalidRecord:            "DATASET",
		ErrCodeCatalogEmpty:             "CATALOG",
		ErrCodeDatabaseConnectionFailed: "DATABASE",
		ErrCodeQueryTimeout:             "DATABASE",
		ErrCodeSearchQueryFailed:        "SEARCH",
		ErrCodeInvalidSuggestionInput:   "SAVINGS",
		ErrCodeRankingFailed:            "SAVINGS",
		ErrCodeTimeout:                  "OTHER",
	}
	for code, expected := range tests {
		assert.Equal(t, expected, GetErrorCategory(code), string(code))
	}
}

func TestNormalize(t *testing.T) {
	stdErr := NewRankingFailedError("no outcomes")
	assert.Same(t, stdErr, Normalize(fmt.Errorf("rank: %w", stdErr)))

	plain := Normalize(stderrors.New("nil pointer"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "nil pointer", plain.Details)
	assert.False(t, plain.Retryable)
}

func TestRetriesLeft(t *testing.T) {
	job := func(retries int32) entities.Job {
		return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1, Retries: retries}}
	}

	assert.Equal(t, int32(2), RetriesLeft(job(3), 3))
	assert.Equal(t, int32(2), RetriesLeft(job(5), 2))
	assert.Equal(t, int32(0), RetriesLeft(job(1), 3))
	assert.Equal(t, int32(0), RetriesLeft(job(0), 3))
}
