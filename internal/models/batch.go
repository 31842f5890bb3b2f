package models

import "encoding/json"

// BatchRequest identifies one page of deals, or one page of sales for a set.
type BatchRequest struct {
	Kind  Kind
	SetID string
	Page  int
	Size  int
}

// RawBatch is an acquisition response before validation: the record array and
// the pagination object, both still undecoded. Either may be missing or of the
// wrong JSON type.
type RawBatch struct {
	Result json.RawMessage `json:"result"`
	Meta   json.RawMessage `json:"meta"`
}
