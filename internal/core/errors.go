package core

import "errors"

var (
	// ErrUpstream is returned when an LLM or embedding call fails
	ErrUpstream = errors.New("upstream model call failed")

	// ErrMalformedJSON is returned when a model response cannot be parsed as JSON
	ErrMalformedJSON = errors.New("malformed JSON in model response")

	// ErrMissingField is returned when a parsed brief lacks a required field
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidURL is returned for URLs that are not absolute http(s) URLs
	ErrInvalidURL = errors.New("invalid URL")

	// ErrScrape is returned when a page cannot be fetched or read
	ErrScrape = errors.New("failed to scrape URL")

	// ErrInvalidRequest is returned for malformed client input
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNotFound is returned when a stored record does not exist
	ErrNotFound = errors.New("not found")
)

// ErrorKind classifies an error for reporting.
type ErrorKind string

const (
	KindUpstream       ErrorKind = "upstream"
	KindMalformedJSON  ErrorKind = "malformed_json"
	KindMissingField   ErrorKind = "missing_field"
	KindInvalidURL     ErrorKind = "invalid_url"
	KindScrape         ErrorKind = "scrape"
	KindInvalidRequest ErrorKind = "invalid_request"
	KindNotFound       ErrorKind = "not_found"
	KindInternal       ErrorKind = "internal"
)

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrInvalidURL, KindInvalidURL},
	{ErrInvalidRequest, KindInvalidRequest},
	{ErrNotFound, KindNotFound},
	{ErrMissingField, KindMissingField},
	{ErrMalformedJSON, KindMalformedJSON},
	{ErrScrape, KindScrape},
	{ErrUpstream, KindUpstream},
}

// KindOf reports the kind of the first sentinel found in err's chain.
func KindOf(err error) ErrorKind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// IsClientError reports whether err was caused by bad caller input.
func IsClientError(err error) bool {
	switch KindOf(err) {
	case KindInvalidURL, KindInvalidRequest:
		return true
	}
	return false
}
