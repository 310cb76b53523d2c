// Package history persists finished runs newest-first.
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"llmbench/internal/model"
)

// ErrPersist marks a failed history write.
var ErrPersist = errors.New("history: persist failed")

const (
	BackendJSON   = "json"
	BackendDuckDB = "duckdb"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	Path    string
	Logger  zerolog.Logger
}

// backend is the storage medium behind a Store.
type backend interface {
	kind() string
	location() string
	read(ctx context.Context) ([]model.RunRecord, error)
	// persist stores run, given the full newest-first sequence it heads.
	persist(ctx context.Context, run model.RunRecord, all []model.RunRecord) error
	close() error
}

// errNotFound signals an absent store; it is not a corruption.
var errNotFound = errors.New("history store not found")

// Store caches history in memory and writes through to a backend.
//
// Reads are served from an immutable snapshot swapped atomically after each
// successful save, so they never wait for a writer.
type Store struct {
	backend  backend
	logger   zerolog.Logger
	mu       sync.Mutex
	loadMu   sync.Mutex
	snapshot atomic.Pointer[[]model.RunRecord]
}

// Open builds a Store for the configured backend.
func Open(opts Options) (*Store, error) {
	path := strings.TrimSpace(opts.Path)
	if path == "" {
		return nil, fmt.Errorf("history path is required")
	}
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendJSON:
		return NewJSONStore(path, opts.Logger), nil
	case BackendDuckDB:
		return NewDuckDBStore(path, opts.Logger), nil
	default:
		return nil, fmt.Errorf("unsupported history backend %q", opts.Backend)
	}
}

func newStore(b backend, logger zerolog.Logger) *Store {
	return &Store{
		backend: b,
		logger:  logger.With().Str("component", "history").Str("backend", b.kind()).Logger(),
	}
}

// Backend names the storage medium.
func (s *Store) Backend() string {
	return s.backend.kind()
}

// Location returns the backing file path.
func (s *Store) Location() string {
	return s.backend.location()
}

// LoadAll returns every run, newest first. A missing or unreadable store
// yields an empty history.
func (s *Store) LoadAll(ctx context.Context) []model.RunRecord {
	runs, _ := s.load(ctx)
	out := make([]model.RunRecord, len(runs))
	copy(out, runs)
	return out
}

// SaveRun prepends run and writes the whole history. On failure the cached
// history is left unchanged and the error wraps ErrPersist.
func (s *Store) SaveRun(ctx context.Context, run model.RunRecord) (model.RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		// Writing without the existing history would overwrite it.
		return run, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	next := make([]model.RunRecord, 0, len(current)+1)
	next = append(next, run)
	next = append(next, current...)

	if err := s.backend.persist(ctx, run, next); err != nil {
		s.logger.Error().Err(err).Str("run_id", run.ID).Str("path", s.Location()).Msg("failed to save run")
		return run, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	s.snapshot.Store(&next)
	s.logger.Debug().Str("run_id", run.ID).Int("runs", len(next)).Msg("run saved")
	return run, nil
}

// Get finds a run by id.
func (s *Store) Get(ctx context.Context, id string) (model.RunRecord, bool) {
	runs, _ := s.load(ctx)
	for _, run := range runs {
		if run.ID == id {
			return run, true
		}
	}
	return model.RunRecord{}, false
}

// At returns the run at a zero-based newest-first index.
func (s *Store) At(ctx context.Context, index int) (model.RunRecord, bool) {
	runs, _ := s.load(ctx)
	if index < 0 || index >= len(runs) {
		return model.RunRecord{}, false
	}
	return runs[index], true
}

// Close releases backend resources.
func (s *Store) Close() error {
	return s.backend.close()
}

// load returns the cached history, reading the backend on first use. A read
// cut short by ctx is returned as an error and not cached; any other read
// failure caches an empty history.
func (s *Store) load(ctx context.Context) ([]model.RunRecord, error) {
	if runs := s.snapshot.Load(); runs != nil {
		return *runs, nil
	}
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	if runs := s.snapshot.Load(); runs != nil {
		return *runs, nil
	}
	runs, err := s.backend.read(ctx)
	switch {
	case err != nil && ctx.Err() != nil:
		s.logger.Debug().Err(err).Str("path", s.Location()).Msg("history read interrupted")
		return []model.RunRecord{}, fmt.Errorf("read history: %w", err)
	case errors.Is(err, errNotFound):
		s.logger.Debug().Str("path", s.Location()).Msg("no history yet")
		runs = nil
	case err != nil:
		s.logger.Warn().Err(err).Str("path", s.Location()).Msg("failed to read history, starting empty")
		runs = nil
	}
	if runs == nil {
		runs = []model.RunRecord{}
	}
	s.snapshot.Store(&runs)
	return runs, nil
}
