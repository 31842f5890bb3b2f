package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// wireRecord is the record shape served by the Lego API. Numeric fields arrive
// either as JSON numbers or as strings depending on the source.
type wireRecord struct {
	ID          json.RawMessage `json:"id"`
	UUID        string          `json:"uuid"`
	Title       string          `json:"title"`
	Link        string          `json:"link"`
	Image       string          `json:"image"`
	Price       json.RawMessage `json:"price"`
	Discount    json.RawMessage `json:"discount"`
	Temperature json.RawMessage `json:"temperature"`
	Comments    json.RawMessage `json:"comments"`
	Published   json.RawMessage `json:"published"`
}

// DecodeRecords decodes a JSON array of wire records, tagging each with kind.
func DecodeRecords(kind Kind, raw json.RawMessage) ([]Record, error) {
	var wire []wireRecord
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}

	records := make([]Record, 0, len(wire))
	for i, w := range wire {
		r, err := w.toRecord(kind)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, r)
	}
	return records, nil
}

func (w wireRecord) toRecord(kind Kind) (Record, error) {
	id, err := rawText(w.ID)
	if err != nil {
		return Record{}, fmt.Errorf("id: %w", err)
	}
	price, err := rawText(w.Price)
	if err != nil {
		return Record{}, fmt.Errorf("price: %w", err)
	}
	discount, err := rawInt(w.Discount)
	if err != nil {
		return Record{}, fmt.Errorf("discount: %w", err)
	}
	discount = normalizeDiscount(discount)
	temperature, err := rawInt(w.Temperature)
	if err != nil {
		return Record{}, fmt.Errorf("temperature: %w", err)
	}
	comments, err := rawInt(w.Comments)
	if err != nil {
		return Record{}, fmt.Errorf("comments: %w", err)
	}

	return Record{
		Kind:        kind,
		ID:          id,
		UUID:        strings.TrimSpace(w.UUID),
		Title:       strings.TrimSpace(w.Title),
		Link:        strings.TrimSpace(w.Link),
		Image:       strings.TrimSpace(w.Image),
		Price:       Price(price),
		Discount:    discount,
		Temperature: temperature,
		Comments:    comments,
		Published:   rawPublished(w.Published),
	}, nil
}

// EncodeRecords produces the wire array for records. Known dates are written as
// epoch seconds so they round-trip through DecodeRecords.
func EncodeRecords(records []Record) (json.RawMessage, error) {
	type out struct {
		Record
		Published *int64 `json:"published,omitempty"`
	}
	items := make([]out, 0, len(records))
	for _, r := range records {
		o := out{Record: r}
		if r.HasKnownDate() {
			sec := r.Published.Unix()
			o.Published = &sec
		}
		items = append(items, o)
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}
	return data, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func rawText(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("expected string or number, got %s", raw)
	}
	return n.String(), nil
}

// rawInt accepts numbers and numeric strings. Non-numeric text such as
// "No discount" is treated as absent.
func rawInt(raw json.RawMessage) (*int, error) {
	if isNull(raw) {
		return nil, nil
	}
	text, err := rawText(raw)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "%")
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return nil, nil
	}
	v := int(math.Round(f))
	return &v, nil
}

// normalizeDiscount folds badge notation such as "-30%" into a 0..100 percentage.
func normalizeDiscount(d *int) *int {
	if d == nil {
		return nil
	}
	v := min(max(*d, -*d), 100)
	return &v
}

func rawPublished(raw json.RawMessage) time.Time {
	if isNull(raw) {
		return time.Time{}
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		f, err := n.Float64()
		if err != nil {
			return time.Time{}
		}
		return PublishedFromUnix(int64(f))
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ParsePublished(s)
	}
	return time.Time{}
}
