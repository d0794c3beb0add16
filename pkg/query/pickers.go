// Copyright 2026 © The KubeBeaver Authors
// SPDX-License-Identifier: Apache-2.0

package query

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/fgbona/kubebeaver-sub000/pkg/api"
	"github.com/fgbona/kubebeaver-sub000/pkg/telemetry"
)

// Backend is the slice of the REST client the pickers need.
type Backend interface {
	Contexts(ctx context.Context) ([]api.ContextItem, error)
	Namespaces(ctx context.Context, kubeContext string, noCache bool) ([]string, error)
	Resources(ctx context.Context, kind api.TargetKind, namespace, kubeContext string) ([]api.ResourceItem, error)
}

// TTLs holds the freshness windows for each picker level. Contexts change
// rarely, resources churn constantly.
type TTLs struct {
	Contexts   time.Duration
	Namespaces time.Duration
	Resources  time.Duration
}

// Pickers wires the three cascading dropdowns to their query stores.
// Data flows one way: context selection feeds the namespace query, both
// feed the resource query. Changing a selection invalidates only the
// queries keyed under the old value.
type Pickers struct {
	backend    Backend
	contexts   *Store[[]api.ContextItem]
	namespaces *Store[[]string]
	resources  *Store[[]api.ResourceItem]
}

// PickersOption configures all three picker stores at once.
type PickersOption func(*pickersSettings)

type pickersSettings struct {
	logger  *slog.Logger
	metrics *telemetry.UIMetrics
}

// WithPickersLogger sets the logger for all picker stores.
func WithPickersLogger(logger *slog.Logger) PickersOption {
	return func(s *pickersSettings) {
		s.logger = logger
	}
}

// WithPickersMetrics records picker cache lookups on the given tracker.
func WithPickersMetrics(m *telemetry.UIMetrics) PickersOption {
	return func(s *pickersSettings) {
		s.metrics = m
	}
}

// NewPickers creates the picker stores against the given backend.
func NewPickers(backend Backend, ttls TTLs, opts ...PickersOption) *Pickers {
	var settings pickersSettings
	for _, opt := range opts {
		if opt != nil {
			opt(&settings)
		}
	}

	p := &Pickers{backend: backend}
	p.contexts = NewStore("contexts", ttls.Contexts, func(ctx context.Context, _ string) ([]api.ContextItem, error) {
		return backend.Contexts(ctx)
	}, WithLogger[[]api.ContextItem](settings.logger), WithMetrics[[]api.ContextItem](settings.metrics))
	p.namespaces = NewStore("namespaces", ttls.Namespaces, func(ctx context.Context, key string) ([]string, error) {
		kubeContext := keyPart(key, "namespaces", 0)
		return backend.Namespaces(ctx, kubeContext, false)
	}, WithLogger[[]string](settings.logger), WithMetrics[[]string](settings.metrics))
	p.resources = NewStore("resources", ttls.Resources, func(ctx context.Context, key string) ([]api.ResourceItem, error) {
		kubeContext := keyPart(key, "resources", 0)
		namespace := keyPart(key, "resources", 1)
		kind := api.TargetKind(keyPart(key, "resources", 2))
		return backend.Resources(ctx, kind, namespace, kubeContext)
	}, WithLogger[[]api.ResourceItem](settings.logger), WithMetrics[[]api.ResourceItem](settings.metrics))
	return p
}

// Contexts lists the kube contexts, cached.
func (p *Pickers) Contexts(ctx context.Context) ([]api.ContextItem, error) {
	return p.contexts.Get(ctx, "contexts")
}

// Namespaces lists namespaces for the selected context, cached per context.
func (p *Pickers) Namespaces(ctx context.Context, kubeContext string) ([]string, error) {
	return p.namespaces.Get(ctx, Key("namespaces", kubeContext))
}

// Resources lists resources for the selected context, namespace and kind.
func (p *Pickers) Resources(ctx context.Context, kubeContext, namespace string, kind api.TargetKind) ([]api.ResourceItem, error) {
	return p.resources.Get(ctx, Key("resources", kubeContext, namespace, string(kind)))
}

// SelectContext records that the context picker moved off previous:
// namespace and resource queries under the old context are dropped so the
// next render recomputes them.
func (p *Pickers) SelectContext(previous string) {
	p.namespaces.InvalidatePrefix(Key("namespaces", previous))
	p.resources.InvalidatePrefix(Key("resources", previous))
}

// SelectNamespace records that the namespace picker moved off previous
// within kubeContext; resource queries under the old pair are dropped.
func (p *Pickers) SelectNamespace(kubeContext, previous string) {
	p.resources.InvalidatePrefix(Key("resources", kubeContext, previous))
}

// RefreshNamespaces bypasses both caches for the given context and stores
// the fresh list so the next Namespaces call serves it without a refetch.
func (p *Pickers) RefreshNamespaces(ctx context.Context, kubeContext string) ([]string, error) {
	key := Key("namespaces", kubeContext)
	namespaces, err := p.backend.Namespaces(ctx, kubeContext, true)
	if err != nil {
		return nil, err
	}
	p.namespaces.Put(key, namespaces)
	return namespaces, nil
}

// keyPart extracts the nth part after the prefix from a key built with Key.
func keyPart(key, prefix string, n int) string {
	trimmed := strings.TrimPrefix(key, prefix)
	trimmed = strings.TrimPrefix(trimmed, ":")
	if trimmed == "" {
		return ""
	}
	parts := strings.Split(trimmed, ":")
	if n >= len(parts) {
		return ""
	}
	return parts[n]
}
