package source

import (
	"context"
	"os"

	domainerrors "skilltrends/common/errors"
	"skilltrends/services/processing/internal/models"
)

type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) ID() string {
	return "file:" + s.path
}

func (s *FileSource) Fetch(_ context.Context, maxRows int) (models.RawTable, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return models.RawTable{}, domainerrors.SourceUnavailable("open dataset file", err)
	}
	defer f.Close()

	return ReadCSV(f, maxRows)
}
