package services

import (
	"context"

	"github.com/sirupsen/logrus"

	m "github.com/Papan07/EntertainHub/models"
)

// FailSoftSource wraps a CatalogSource so provider outages degrade to an
// empty page instead of an error. Callers render "no results" without
// special-casing the outage; the cause is logged.
type FailSoftSource struct {
	inner CatalogSource
	log   *logrus.Logger
}

func NewFailSoftSource(inner CatalogSource, log *logrus.Logger) *FailSoftSource {
	return &FailSoftSource{inner: inner, log: log}
}

func (f *FailSoftSource) degrade(op string, err error) (CatalogPage, error) {
	f.log.WithFields(logrus.Fields{
		"operation": op,
		"error":     err.Error(),
	}).Warn("remote catalog request failed, returning empty page")
	return CatalogPage{Results: []m.SearchResult{}, TotalPages: 1}, nil
}

func (f *FailSoftSource) Search(ctx context.Context, query string, page int) (CatalogPage, error) {
	result, err := f.inner.Search(ctx, query, page)
	if err != nil {
		return f.degrade("search", err)
	}
	return result, nil
}

func (f *FailSoftSource) Popular(ctx context.Context, page int) (CatalogPage, error) {
	result, err := f.inner.Popular(ctx, page)
	if err != nil {
		return f.degrade("popular", err)
	}
	return result, nil
}

func (f *FailSoftSource) TopRated(ctx context.Context, page int) (CatalogPage, error) {
	result, err := f.inner.TopRated(ctx, page)
	if err != nil {
		return f.degrade("top_rated", err)
	}
	return result, nil
}

func (f *FailSoftSource) Upcoming(ctx context.Context, page int) (CatalogPage, error) {
	result, err := f.inner.Upcoming(ctx, page)
	if err != nil {
		return f.degrade("upcoming", err)
	}
	return result, nil
}

func (f *FailSoftSource) NowPlaying(ctx context.Context, page int) (CatalogPage, error) {
	result, err := f.inner.NowPlaying(ctx, page)
	if err != nil {
		return f.degrade("now_playing", err)
	}
	return result, nil
}

func (f *FailSoftSource) Trending(ctx context.Context, window string) (CatalogPage, error) {
	result, err := f.inner.Trending(ctx, window)
	if err != nil {
		return f.degrade("trending", err)
	}
	return result, nil
}
