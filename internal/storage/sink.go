// Package storage archives deduplicated listings. Sinks are best-effort: a search
// result is never withheld because archiving failed.
package storage

import (
	"context"
	"errors"

	"rental-aggregator/internal/models"
)

// ListingSink persists one search's listings.
type ListingSink interface {
	Name() string
	Store(ctx context.Context, tool string, props []models.UnifiedProperty) error
}

// MultiSink fans out to every configured sink and joins their errors.
type MultiSink struct {
	sinks []ListingSink
}

func NewMultiSink(sinks ...ListingSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) Name() string { return "multi" }

func (m *MultiSink) Len() int { return len(m.sinks) }

func (m *MultiSink) Store(ctx context.Context, tool string, props []models.UnifiedProperty) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Store(ctx, tool, props); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
