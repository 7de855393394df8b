package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// UpdateRecord carries the current content of one element.
// ID is the DOM id of the target element; HTML replaces its value or content.
type UpdateRecord struct {
	ID   string `json:"ID"`
	HTML string `json:"HTML"`
}

// EncodeUpdates serializes an update list. A nil list encodes as [].
func EncodeUpdates(updates []UpdateRecord) ([]byte, error) {
	if updates == nil {
		updates = []UpdateRecord{}
	}
	return json.Marshal(updates)
}

// DecodeUpdates parses a refresh response body.
//
// The body must be a JSON array of records. Anything else, including a
// trailing value after the array, is reported as ErrMalformed.
func DecodeUpdates(data []byte) ([]UpdateRecord, error) {
	return ReadUpdates(bytes.NewReader(data), DefaultLimits())
}

// ReadUpdates decodes an update list from r, enforcing limits.
func ReadUpdates(r io.Reader, limits *Limits) ([]UpdateRecord, error) {
	data, err := readBody(r, limits)
	if err != nil {
		return nil, err
	}
	if limits == nil {
		limits = DefaultLimits()
	}
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, malformed("read array start", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, malformed("read array start", fmt.Errorf("got %v, want [", tok))
	}

	updates := make([]UpdateRecord, 0, 16)
	for dec.More() {
		if len(updates) >= limits.MaxUpdates {
			return nil, ErrTooManyUpdates
		}
		var rec UpdateRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, malformed(fmt.Sprintf("record %d", len(updates)), err)
		}
		updates = append(updates, rec)
	}

	if _, err := dec.Token(); err != nil {
		return nil, malformed("read array end", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, malformed("trailing data", fmt.Errorf("unexpected content after array"))
	}
	return updates, nil
}

// readBody reads at most limits.MaxBodySize bytes from r.
func readBody(r io.Reader, limits *Limits) ([]byte, error) {
	if limits == nil {
		limits = DefaultLimits()
	}
	data, err := io.ReadAll(io.LimitReader(r, limits.MaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("protocol: read body: %w", err)
	}
	if int64(len(data)) > limits.MaxBodySize {
		return nil, ErrBodyTooLarge
	}
	return data, nil
}
