package model

import "context"

type ReportCache interface {
	// Get decodes the cached report under key into dst. It reports false on a miss.
	Get(ctx context.Context, key string, dst any) (bool, error)

	// Set stores report under key, replacing any previous value
	Set(ctx context.Context, key string, report any) error

	// Invalidate drops every cached report, e.g. after new rows are imported
	Invalidate(ctx context.Context) error
}
