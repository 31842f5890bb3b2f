package viewstate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/pauljones0/brick-deals/internal/models"
	"github.com/pauljones0/brick-deals/internal/validator"
)

// Store holds the current batch. A batch is accepted whole or replaced by the
// empty state; it is never partially applied.
type Store struct {
	records    []models.Record
	pagination models.Pagination
	validate   *validator.Validator
}

func NewStore(v *validator.Validator) *Store {
	if v == nil {
		v = validator.New()
	}
	return &Store{
		records:    []models.Record{},
		pagination: models.EmptyPagination(),
		validate:   v,
	}
}

// SetBatch replaces the records and pagination with the decoded batch. On any
// structural problem the store is reset and an ErrMalformedBatch is returned.
// Record content such as link format is not checked here; ingest enforces it.
func (s *Store) SetBatch(kind models.Kind, batch models.RawBatch) error {
	records, pagination, err := s.parse(kind, batch)
	if err != nil {
		s.Reset()
		return fmt.Errorf("%w: %w", ErrMalformedBatch, err)
	}
	s.records = records
	s.pagination = pagination
	return nil
}

// Reset applies the empty state: no records, page 1 of 1.
func (s *Store) Reset() {
	s.records = []models.Record{}
	s.pagination = models.EmptyPagination()
}

// Records returns a copy of the held records.
func (s *Store) Records() []models.Record {
	return slices.Clone(s.records)
}

func (s *Store) Pagination() models.Pagination {
	return s.pagination
}

func (s *Store) parse(kind models.Kind, batch models.RawBatch) ([]models.Record, models.Pagination, error) {
	if kind != models.KindDeal && kind != models.KindSale {
		return nil, models.Pagination{}, fmt.Errorf("unknown record kind %q", kind)
	}
	if jsonType(batch.Result) != '[' {
		return nil, models.Pagination{}, errors.New("result is not an array")
	}
	if jsonType(batch.Meta) != '{' {
		return nil, models.Pagination{}, errors.New("meta is not an object")
	}

	records, err := models.DecodeRecords(kind, batch.Result)
	if err != nil {
		return nil, models.Pagination{}, err
	}

	var pagination models.Pagination
	if err := json.Unmarshal(batch.Meta, &pagination); err != nil {
		return nil, models.Pagination{}, fmt.Errorf("decode meta: %w", err)
	}
	// Sources omit the page fields when everything fits on one page.
	if pagination.CurrentPage == 0 {
		pagination.CurrentPage = 1
	}
	if pagination.PageCount == 0 {
		pagination.PageCount = 1
	}
	if err := s.validate.ValidatePagination(pagination); err != nil {
		return nil, models.Pagination{}, err
	}
	return records, pagination, nil
}

// jsonType returns the first significant byte of a JSON value, or 0 when absent.
func jsonType(raw json.RawMessage) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}
