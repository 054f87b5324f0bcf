// Package progress owns the canonical learner snapshot. Saves are coalesced
// within a time window so a burst of answers produces a single write.
package progress

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/example/lettersbot/internal/database"
	"github.com/example/lettersbot/internal/gamification"
	"github.com/example/lettersbot/pkg/models"
)

// SnapshotKey is the key the snapshot is stored under.
const SnapshotKey = "user_progress"

// DefaultWindow is the coalescing window used when none is configured.
const DefaultWindow = 2 * time.Second

// flushTimeout bounds a write started by the coalescing timer.
const flushTimeout = 10 * time.Second

// Repository persists raw snapshots.
type Repository interface {
	GetSnapshot(ctx context.Context, key string) ([]byte, error)
	PutSnapshot(ctx context.Context, key string, data []byte) error
}

// Store holds the latest snapshot in memory and writes it through to the
// repository at most once per window.
type Store struct {
	repo   Repository
	window time.Duration
	logger *slog.Logger

	// writeMu orders repository writes; it is always taken before mu.
	writeMu sync.Mutex

	mu      sync.Mutex
	current models.UserProgress
	pending bool
	timer   *time.Timer
	closed  bool
}

// NewStore creates a store. A non-positive window uses DefaultWindow.
func NewStore(repo Repository, window time.Duration, logger *slog.Logger) *Store {
	if window <= 0 {
		window = DefaultWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		repo:    repo,
		window:  window,
		logger:  logger.With("component", "progress_store"),
		current: Default(),
	}
}

// Default returns the snapshot of a learner who has never practiced.
func Default() models.UserProgress {
	return models.UserProgress{
		MemoryStates: map[string]models.MemoryState{},
		XP:           gamification.NewXPSystem(),
	}
}

// Load reads the persisted snapshot. Missing or unreadable data yields the
// default snapshot; errors are logged and never returned.
func (s *Store) Load(ctx context.Context) models.UserProgress {
	p := s.read(ctx)

	s.mu.Lock()
	s.current = p.Clone()
	s.mu.Unlock()
	return p
}

func (s *Store) read(ctx context.Context) models.UserProgress {
	data, err := s.repo.GetSnapshot(ctx, SnapshotKey)
	if errors.Is(err, database.ErrSnapshotNotFound) {
		s.logger.Info("no saved progress, starting fresh")
		return Default()
	}
	if err != nil {
		s.logger.Warn("failed to load progress, starting fresh", "error", err)
		return Default()
	}

	var p models.UserProgress
	if err := json.Unmarshal(data, &p); err != nil {
		s.logger.Warn("corrupt progress snapshot, starting fresh", "error", err, "bytes", len(data))
		return Default()
	}
	return Normalize(p)
}

// Normalize fills in zero values a decoded snapshot may be missing.
func Normalize(p models.UserProgress) models.UserProgress {
	if p.MemoryStates == nil {
		p.MemoryStates = map[string]models.MemoryState{}
	}
	for id, st := range p.MemoryStates {
		if st.ItemID == "" {
			st.ItemID = id
			p.MemoryStates[id] = st
		}
	}
	if p.XP.CurrentLevel < 1 {
		p.XP, _ = gamification.ApplyXP(gamification.NewXPSystem(), p.XP.TotalXP)
	}
	p.XP, _ = gamification.ApplyXP(p.XP, 0)
	return p
}

// Current returns the latest snapshot, which may be ahead of what is persisted.
func (s *Store) Current() models.UserProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Save replaces the in-memory snapshot and schedules a write. Saves within
// one window collapse into a single write of the last snapshot.
func (s *Store) Save(p models.UserProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = p.Clone()
	s.pending = true
	if s.closed {
		s.logger.Warn("save after close, snapshot kept in memory only")
		return
	}
	if s.timer == nil {
		s.timer = time.AfterFunc(s.window, s.onTimer)
	}
}

func (s *Store) onTimer() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := s.Flush(ctx); err != nil {
		s.logger.Error("failed to save progress", "error", err)
	}
}

// Flush writes the pending snapshot now, if there is one.
func (s *Store) Flush(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if !s.pending {
		s.mu.Unlock()
		return nil
	}
	snapshot := s.current.Clone()
	s.pending = false
	s.mu.Unlock()

	data, err := json.Marshal(snapshot)
	if err != nil {
		return errors.Wrap(err, "failed to encode progress")
	}
	if err := s.repo.PutSnapshot(ctx, SnapshotKey, data); err != nil {
		s.mu.Lock()
		s.pending = true
		s.mu.Unlock()
		return errors.Wrap(err, "failed to write progress")
	}
	s.logger.Debug("progress saved", "bytes", len(data))
	return nil
}

// Close flushes pending data and stops scheduling writes.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.Flush(ctx)
}
