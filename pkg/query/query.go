// Copyright 2026 © The KubeBeaver Authors
// SPDX-License-Identifier: Apache-2.0

// Package query implements the dashboard's dependent-query layer: every
// picker (context, namespace, resource) is an explicit query keyed by the
// selections above it. Results are cached with a TTL, concurrent fetches
// for the same key are deduplicated, and changing an upstream selection
// invalidates everything keyed under the old value. Cached results are
// replaced, never mutated.
package query

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/fgbona/kubebeaver-sub000/pkg/telemetry"
	"github.com/fgbona/kubebeaver-sub000/pkg/uierr"
)

// Key identifies one query instance by its upstream selections. Keys nest:
// "namespaces:minikube" depends on "contexts", "resources:minikube:prod:Pod"
// depends on both.
func Key(prefix string, parts ...string) string {
	if len(parts) == 0 {
		return prefix
	}
	return prefix + ":" + strings.Join(parts, ":")
}

// FetchFunc loads the value for a key from the backend.
type FetchFunc[V any] func(ctx context.Context, key string) (V, error)

// entry wraps a cached value with its fetch time so staleness is judged
// against the store's soft TTL rather than the cache's eviction TTL.
type entry[V any] struct {
	value     V
	fetchedAt time.Time
}

// Store caches the results of one query family. V must be treated as
// immutable by callers.
type Store[V any] struct {
	name    string
	ttl     time.Duration
	fetch   FetchFunc[V]
	cache   *expirable.LRU[string, entry[V]]
	group   singleflight.Group
	logger  *slog.Logger
	metrics *telemetry.UIMetrics
}

// StoreOption configures a Store.
type StoreOption[V any] func(*Store[V])

// WithLogger sets the logger used for stale-serve warnings.
func WithLogger[V any](logger *slog.Logger) StoreOption[V] {
	return func(s *Store[V]) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records cache hits and misses on the given tracker.
func WithMetrics[V any](m *telemetry.UIMetrics) StoreOption[V] {
	return func(s *Store[V]) {
		s.metrics = m
	}
}

// maxEntries bounds each store; selections are small, 256 is generous.
const maxEntries = 256

// NewStore creates a query store. Entries are considered fresh for ttl and
// kept around four times as long so a failing backend can still serve the
// last known value.
func NewStore[V any](name string, ttl time.Duration, fetch FetchFunc[V], opts ...StoreOption[V]) *Store[V] {
	s := &Store[V]{
		name:   name,
		ttl:    ttl,
		fetch:  fetch,
		cache:  expirable.NewLRU[string, entry[V]](maxEntries, nil, 4*ttl),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Get returns the value for key, fetching it if missing or stale.
// Concurrent calls for the same key share a single fetch. When a refresh
// fails but a stale value survives in the cache, the stale value is served
// and the failure logged.
func (s *Store[V]) Get(ctx context.Context, key string) (V, error) {
	if e, ok := s.cache.Get(key); ok && time.Since(e.fetchedAt) < s.ttl {
		s.recordLookup(ctx, key, true)
		return e.value, nil
	}
	s.recordLookup(ctx, key, false)

	v, err, _ := s.group.Do(key, func() (any, error) {
		// Re-check under the flight: another caller may have refreshed.
		if e, ok := s.cache.Get(key); ok && time.Since(e.fetchedAt) < s.ttl {
			return e.value, nil
		}
		value, err := s.fetch(ctx, key)
		if err != nil {
			if e, ok := s.cache.Get(key); ok {
				s.logger.WarnContext(ctx, "serving stale query result",
					"store", s.name,
					"key", key,
					"age", time.Since(e.fetchedAt).String(),
					"error", err)
				return e.value, nil
			}
			return nil, err
		}
		s.cache.Add(key, entry[V]{value: value, fetchedAt: time.Now()})
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, uierr.As(err)
	}
	return v.(V), nil
}

// Refresh drops the cached entry and fetches the key again.
func (s *Store[V]) Refresh(ctx context.Context, key string) (V, error) {
	s.cache.Remove(key)
	return s.Get(ctx, key)
}

// Put stores value for key as if it had just been fetched. Used when a
// caller obtained a fresh value outside the store's own fetch path.
func (s *Store[V]) Put(key string, value V) {
	s.cache.Add(key, entry[V]{value: value, fetchedAt: time.Now()})
}

// Invalidate removes the entry for key.
func (s *Store[V]) Invalidate(key string) {
	s.cache.Remove(key)
}

// InvalidatePrefix removes every entry whose key starts with prefix. Used
// when an upstream selection changes: a new kube context invalidates all
// namespace and resource queries keyed under any context.
func (s *Store[V]) InvalidatePrefix(prefix string) {
	for _, key := range s.cache.Keys() {
		if strings.HasPrefix(key, prefix) {
			s.cache.Remove(key)
		}
	}
}

// Clear drops every cached entry.
func (s *Store[V]) Clear() {
	s.cache.Purge()
}

// Len reports the number of cached entries, fresh or stale.
func (s *Store[V]) Len() int {
	return s.cache.Len()
}

func (s *Store[V]) recordLookup(ctx context.Context, key string, hit bool) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordCacheLookup(ctx, s.name, hit)
}
