package catalog

import (
	"context"

	"savings-workers/internal/common/logger"
	"savings-workers/internal/ingest"
	"savings-workers/internal/models"
)

// FileSource reads the catalog from a dataset file on every call.
type FileSource struct {
	path string
	opts ingest.Options
}

func NewFileSource(path string, skipInvalidRows bool, log logger.Logger) *FileSource {
	return &FileSource{
		path: path,
		opts: ingest.Options{SkipInvalidRows: skipInvalidRows, Logger: log},
	}
}

func (s *FileSource) Name() string { return "file" }

func (s *FileSource) Products(ctx context.Context) ([]models.SavingsProduct, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ingest.ReadProducts(s.path, s.opts)
}
