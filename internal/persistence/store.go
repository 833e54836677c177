// Package persistence selects and opens the person store named by a connection string.
package persistence

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/persistence/memory"
	mongostore "example.com/exercisetracker/internal/persistence/mongo"
	"example.com/exercisetracker/internal/persistence/postgres"
)

// Backend identifies a storage implementation.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendPostgres Backend = "postgres"
	BackendMongo    Backend = "mongo"
)

// Options configures Open.
type Options struct {
	URL           string
	MongoDatabase string
	Logger        *zap.Logger
}

// Store is an opened repository plus the function that releases it.
type Store struct {
	Backend    Backend
	Repository domain.PersonRepository
	close      func(context.Context) error
}

// Close releases the underlying connections.
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// BackendFor maps a connection string scheme to a Backend.
func BackendFor(rawURL string) (Backend, error) {
	if strings.TrimSpace(rawURL) == "" {
		return BackendMemory, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing storage url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "memory", "mem":
		return BackendMemory, nil
	case "postgres", "postgresql":
		return BackendPostgres, nil
	case "mongodb", "mongodb+srv":
		return BackendMongo, nil
	default:
		return "", fmt.Errorf("unsupported storage scheme %q", u.Scheme)
	}
}

// Open connects to the store named by opts.URL, applying schema setup.
func Open(ctx context.Context, opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	backend, err := BackendFor(opts.URL)
	if err != nil {
		return nil, err
	}

	switch backend {
	case BackendPostgres:
		if err := postgres.Migrate(ctx, opts.URL); err != nil {
			return nil, fmt.Errorf("migrating postgres: %w", err)
		}
		db, err := postgres.Open(ctx, opts.URL)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to storage", zap.String("backend", string(backend)))
		return &Store{
			Backend:    backend,
			Repository: postgres.NewRepository(db),
			close: func(context.Context) error {
				db.Close()
				return nil
			},
		}, nil

	case BackendMongo:
		client, err := mongostore.Connect(ctx, opts.URL)
		if err != nil {
			return nil, err
		}
		repo := mongostore.NewRepository(client.Database(opts.MongoDatabase))
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("creating mongodb indexes: %w", err)
		}
		logger.Info("connected to storage",
			zap.String("backend", string(backend)),
			zap.String("database", opts.MongoDatabase),
		)
		return &Store{Backend: backend, Repository: repo, close: client.Disconnect}, nil

	default:
		logger.Warn("using in-memory storage; data is lost on restart")
		return &Store{Backend: BackendMemory, Repository: memory.NewRepository()}, nil
	}
}
