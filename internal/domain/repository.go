package domain

import "context"

// SearchClient defines the fetch boundary against the upstream search API.
// Errors wrap ErrAuthFailure, ErrFetchFailure or ErrMalformedResponse.
type SearchClient interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// ReportWriter persists a finished report and returns where it was written
type ReportWriter interface {
	Write(ctx context.Context, report *Report) (string, error)
}
