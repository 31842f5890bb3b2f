package models

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrDealExists is returned when attempting to create a deal that already exists.
var ErrDealExists = errors.New("deal already exists")

// Kind tags which of the two record streams a record came from.
type Kind string

const (
	KindDeal Kind = "deal"
	KindSale Kind = "sale"
)

// Record is a single deal (Dealabs) or sale (Vinted) as displayed in the view.
// ID is the Lego set id and repeats across records; UUID is unique.
type Record struct {
	Kind        Kind      `json:"-" validate:"oneof=deal sale"`
	ID          string    `json:"id"`
	UUID        string    `json:"uuid" validate:"required"`
	Title       string    `json:"title"`
	Link        string    `json:"link" validate:"omitempty,url"`
	Image       string    `json:"image,omitempty" validate:"omitempty,url"`
	Price       Price     `json:"price"`
	Discount    *int      `json:"discount,omitempty" validate:"omitempty,gte=0,lte=100"`
	Temperature *int      `json:"temperature,omitempty"`
	Comments    *int      `json:"comments,omitempty" validate:"omitempty,gte=0"`
	Published   time.Time `json:"-"` // zero means unknown
}

// Price is the currency-less decimal text reported by the source.
type Price string

// Value returns the numeric price. Text that is not a number counts as 0.
func (p Price) Value() float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(string(p)), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// HasKnownDate reports whether Published was parsed successfully.
func (r Record) HasKnownDate() bool {
	return !r.Published.IsZero()
}

// PublishedFromUnix converts a Dealabs epoch-seconds timestamp.
func PublishedFromUnix(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// ParsePublished normalizes a textual publication date. Vinted reports RFC 1123
// strings such as "Sat, 18 Jan 2025 16:19:10 GMT"; numeric text is treated as
// epoch seconds. Anything else yields the zero time.
func ParsePublished(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if strings.HasSuffix(s, "GMT") {
		t, err := time.Parse(time.RFC1123, s)
		if err != nil {
			return time.Time{}
		}
		return t.UTC()
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return PublishedFromUnix(sec)
	}
	return time.Time{}
}

// Pagination mirrors the meta object returned with every batch.
type Pagination struct {
	CurrentPage int `json:"currentPage" validate:"gte=1,ltefield=PageCount"`
	PageCount   int `json:"pageCount" validate:"gte=1"`
	Count       int `json:"count" validate:"gte=0"`
}

// EmptyPagination is the state shown when no batch is available.
func EmptyPagination() Pagination {
	return Pagination{CurrentPage: 1, PageCount: 1, Count: 0}
}

// NewPagination derives page bounds for total items split into pages of size.
// The requested page is clamped into range.
func NewPagination(page, size, total int) Pagination {
	if size < 1 {
		size = 1
	}
	if total < 0 {
		total = 0
	}
	pageCount := max(1, (total+size-1)/size)
	return Pagination{
		CurrentPage: min(max(page, 1), pageCount),
		PageCount:   pageCount,
		Count:       total,
	}
}
