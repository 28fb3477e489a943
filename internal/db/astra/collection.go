package astra

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type vectorOptions struct {
	Dimension int    `json:"dimension,omitempty"`
	Metric    Metric `json:"metric,omitempty"`
}

type collectionOptions struct {
	Vector   *vectorOptions `json:"vector,omitempty"`
	Indexing map[string]any `json:"indexing,omitempty"`
}

type createCollection struct {
	Name    string             `json:"name"`
	Options *collectionOptions `json:"options,omitempty"`
}

// Setup drops the collection when PreDeleteCollection is set, then creates it
// with the configured vector and indexing options. Creating an existing
// collection with identical options succeeds.
func (s *Store) Setup(ctx context.Context) error {
	if s.cfg.PreDeleteCollection {
		if err := s.DropCollection(ctx); err != nil {
			return err
		}
	}

	payload := createCollection{Name: s.cfg.CollectionName}
	opts := &collectionOptions{Indexing: s.cfg.indexing()}
	if s.cfg.Dimensions > 0 {
		opts.Vector = &vectorOptions{Dimension: s.cfg.Dimensions, Metric: s.cfg.Metric}
	}
	if opts.Vector != nil || opts.Indexing != nil {
		payload.Options = opts
	}

	if _, err := s.command(ctx, s.cfg.keyspaceURL(), "createCollection", payload); err != nil {
		return fmt.Errorf("create collection %q: %w", s.cfg.CollectionName, err)
	}
	s.logger.Info("Collection ready",
		zap.String("collection", s.cfg.CollectionName),
		zap.String("keyspace", s.cfg.Namespace),
		zap.Int("dimensions", s.cfg.Dimensions),
	)
	return nil
}

// Provision runs Setup according to SetupMode. In async mode it returns at once
// and the outcome is only logged.
func (s *Store) Provision(ctx context.Context) error {
	switch s.cfg.SetupMode {
	case SetupOff:
		return nil
	case SetupAsync:
		go func() {
			if err := s.Setup(context.WithoutCancel(ctx)); err != nil {
				s.logger.Error("Async collection setup failed", zap.Error(err))
			}
		}()
		return nil
	default:
		return s.Setup(ctx)
	}
}

// DropCollection deletes the collection and its documents.
func (s *Store) DropCollection(ctx context.Context) error {
	payload := map[string]string{"name": s.cfg.CollectionName}
	if _, err := s.command(ctx, s.cfg.keyspaceURL(), "deleteCollection", payload); err != nil {
		return fmt.Errorf("delete collection %q: %w", s.cfg.CollectionName, err)
	}
	return nil
}

// Ping lists collections in the keyspace.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.command(ctx, s.cfg.keyspaceURL(), "findCollections", map[string]any{}); err != nil {
		return fmt.Errorf("ping vector store: %w", err)
	}
	return nil
}

// HealthCheck lets the store stand in as a health dependency.
func (s *Store) HealthCheck(ctx context.Context) error { return s.Ping(ctx) }
