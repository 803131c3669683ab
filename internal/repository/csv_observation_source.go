package repository

import (
	"context"
	"fmt"

	"FGReport/internal/domain/models"
	"FGReport/internal/domain/repository"
	"FGReport/internal/services/schema"
)

// CSVObservationSource reads the primary sentiment table from disk.
type CSVObservationSource struct {
	path     string
	resolver *schema.Resolver
}

func NewCSVObservationSource(path string, resolver *schema.Resolver) *CSVObservationSource {
	return &CSVObservationSource{path: path, resolver: resolver}
}

func (s *CSVObservationSource) Load(ctx context.Context) (*models.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	header, records, err := readCSV(s.path)
	if err != nil {
		return nil, err
	}
	tbl, err := s.resolver.Resolve(header, records)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	if tbl.Len() == 0 {
		return nil, fmt.Errorf("%w: %s has no dated rows", repository.ErrInputMissing, s.path)
	}
	return tbl, nil
}

var _ repository.ObservationSource = (*CSVObservationSource)(nil)
