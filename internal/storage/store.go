package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	bundleerrors "github.com/nikbrunner/bundles/internal/errors"
	"github.com/nikbrunner/bundles/internal/logger"
	"github.com/nikbrunner/bundles/internal/model"
)

// BundleKey is the storage key holding the whole bundle collection.
const BundleKey = "bundle_all"

// MoveToBottomOffset is how far (in milliseconds) MoveToBottom pushes a bundle
// behind the current last one.
const MoveToBottomOffset int64 = 1000

// Store is the only reader and writer of the bundle collection. Every
// mutation loads the collection, changes it, validates it and writes it back
// with a single Backend.Set.
type Store struct {
	backend Backend
	key     string
	now     func() time.Time
	log     logger.Logger

	// mu serializes read-modify-write cycles within this process. Backends
	// implementing Locker extend this across processes.
	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for mutations.
func WithLogger(log logger.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithKey overrides BundleKey.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// NewStore creates a Store on top of backend.
func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		key:     BundleKey,
		now:     time.Now,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the underlying backend.
func (s *Store) Backend() Backend {
	return s.backend
}

// rawBundle is the persisted record with required fields as pointers so a
// missing field is distinguishable from a zero value.
type rawBundle struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	URLs        []string `json:"urls"`
	Pinned      *bool    `json:"pinned"`
	LastUpdated *float64 `json:"lastUpdated"`
}

// GetAll returns the stored collection in canonical order. An absent key is
// an empty collection. Unreadable data yields a CORRUPT_STORE error; no record
// is ever dropped silently.
func (s *Store) GetAll(ctx context.Context) ([]model.Bundle, error) {
	data, ok, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("read bundles: %w", err)
	}
	if !ok {
		return []model.Bundle{}, nil
	}
	return decodeBundles(data)
}

func decodeBundles(data []byte) ([]model.Bundle, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, bundleerrors.NewCorruptStore(fmt.Errorf("expected a list of bundles, got null"))
	}

	var raw []rawBundle
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, bundleerrors.NewCorruptStore(err)
	}

	list := make([]model.Bundle, 0, len(raw))
	for i, r := range raw {
		b, err := r.toBundle()
		if err != nil {
			return nil, bundleerrors.NewCorruptStore(fmt.Errorf("record %d: %w", i, err))
		}
		if err := model.ValidateBundle(b); err != nil {
			return nil, bundleerrors.NewCorruptStore(fmt.Errorf("record %d: %w", i, err))
		}
		list = append(list, b)
	}
	return list, nil
}

func (r rawBundle) toBundle() (model.Bundle, error) {
	switch {
	case r.Name == nil:
		return model.Bundle{}, fmt.Errorf("missing name")
	case r.Description == nil:
		return model.Bundle{}, fmt.Errorf("missing description")
	case r.URLs == nil:
		return model.Bundle{}, fmt.Errorf("missing urls")
	case r.LastUpdated == nil:
		return model.Bundle{}, fmt.Errorf("missing lastUpdated")
	case math.IsNaN(*r.LastUpdated) || math.IsInf(*r.LastUpdated, 0):
		return model.Bundle{}, fmt.Errorf("lastUpdated is not a finite number")
	case *r.LastUpdated < -(1<<63) || *r.LastUpdated >= 1<<63:
		return model.Bundle{}, fmt.Errorf("lastUpdated %g is out of range", *r.LastUpdated)
	}

	b := model.Bundle{
		Name:        *r.Name,
		Description: *r.Description,
		URLs:        r.URLs,
		LastUpdated: int64(*r.LastUpdated),
	}
	if r.Pinned != nil {
		b.Pinned = *r.Pinned
	}
	return b, nil
}

// Get returns the bundle called name.
func (s *Store) Get(ctx context.Context, name string) (model.Bundle, error) {
	list, err := s.GetAll(ctx)
	if err != nil {
		return model.Bundle{}, err
	}
	i := model.IndexByName(list, name)
	if i < 0 {
		return model.Bundle{}, bundleerrors.NewNotFound(name)
	}
	return list[i], nil
}

// Save validates list, sorts it by LastUpdated descending and writes it in
// one call. When validation fails nothing is written.
func (s *Store) Save(ctx context.Context, list []model.Bundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l, ok := s.backend.(Locker); ok {
		unlock, err := l.Lock(ctx)
		if err != nil {
			return err
		}
		defer unlock()
	}

	if err := s.write(ctx, list); err != nil {
		return err
	}
	s.log.Debug("bundles saved", logger.String("op", "save"), logger.Int("count", len(list)))
	return nil
}

// Add stores a new bundle stamped with the current time.
func (s *Store) Add(ctx context.Context, b model.Bundle) error {
	return s.mutate(ctx, "add", func(_ context.Context, list []model.Bundle) ([]model.Bundle, error) {
		b = b.Clone()
		b.LastUpdated = s.nowMillis()
		return append(list, b), nil
	}, logger.String("name", b.Name))
}

// Edit merges patch onto the bundle called previousName. The timestamp is
// refreshed unless overrideTimestamp is false.
func (s *Store) Edit(ctx context.Context, previousName string, patch model.Patch, overrideTimestamp bool) error {
	return s.mutate(ctx, "edit", func(_ context.Context, list []model.Bundle) ([]model.Bundle, error) {
		return s.edit(list, previousName, patch, overrideTimestamp)
	}, logger.String("name", previousName))
}

// Update is Edit with a refreshed timestamp.
func (s *Store) Update(ctx context.Context, previousName string, patch model.Patch) error {
	return s.Edit(ctx, previousName, patch, true)
}

func (s *Store) edit(list []model.Bundle, previousName string, patch model.Patch, overrideTimestamp bool) ([]model.Bundle, error) {
	i := model.IndexByName(list, previousName)
	if i < 0 {
		return nil, bundleerrors.NewNotFound(previousName)
	}

	updated := list[i].Apply(patch)
	if overrideTimestamp {
		updated.LastUpdated = s.nowMillis()
	}
	list[i] = updated
	return list, nil
}

// Delete removes the bundle called name. Deleting a missing bundle is not an
// error.
func (s *Store) Delete(ctx context.Context, name string) error {
	return s.mutate(ctx, "delete", func(_ context.Context, list []model.Bundle) ([]model.Bundle, error) {
		kept := list[:0:0]
		for _, b := range list {
			if b.Name != name {
				kept = append(kept, b)
			}
		}
		return kept, nil
	}, logger.String("name", name))
}

// SetPinned sets the pin flag and refreshes the timestamp.
func (s *Store) SetPinned(ctx context.Context, name string, pinned bool) error {
	return s.mutate(ctx, "pin", func(_ context.Context, list []model.Bundle) ([]model.Bundle, error) {
		return s.edit(list, name, model.Patch{Pinned: &pinned}, true)
	}, logger.String("name", name), logger.Bool("pinned", pinned))
}

// TogglePin flips the pin flag and returns the new state.
func (s *Store) TogglePin(ctx context.Context, name string) (bool, error) {
	var pinned bool
	err := s.mutate(ctx, "toggle-pin", func(_ context.Context, list []model.Bundle) ([]model.Bundle, error) {
		i := model.IndexByName(list, name)
		if i < 0 {
			return nil, bundleerrors.NewNotFound(name)
		}
		pinned = !list[i].Pinned
		return s.edit(list, name, model.Patch{Pinned: &pinned}, true)
	}, logger.String("name", name))
	return pinned, err
}

// MoveToTop refreshes the timestamp so the bundle sorts first.
func (s *Store) MoveToTop(ctx context.Context, name string) error {
	return s.mutate(ctx, "move-top", func(_ context.Context, list []model.Bundle) ([]model.Bundle, error) {
		return s.edit(list, name, model.Patch{}, true)
	}, logger.String("name", name))
}

// MoveToBottom stamps the bundle MoveToBottomOffset before the current last
// bundle so it sorts after every other one. Calling it again keeps pushing
// the timestamp back, even when the bundle is already last.
func (s *Store) MoveToBottom(ctx context.Context, name string) error {
	return s.mutate(ctx, "move-bottom", func(_ context.Context, list []model.Bundle) ([]model.Bundle, error) {
		if len(list) == 0 {
			return nil, bundleerrors.NewNotFound(name)
		}
		oldest := list[0].LastUpdated
		for _, b := range list[1:] {
			oldest = min(oldest, b.LastUpdated)
		}
		ts := oldest - MoveToBottomOffset
		return s.edit(list, name, model.Patch{LastUpdated: &ts}, false)
	}, logger.String("name", name))
}

// Import adds every incoming bundle whose name is not taken yet. Bundles
// without a timestamp are stamped with the current time.
func (s *Store) Import(ctx context.Context, incoming []model.Bundle) (added, skipped int, err error) {
	err = s.mutate(ctx, "import", func(_ context.Context, list []model.Bundle) ([]model.Bundle, error) {
		added, skipped = 0, 0
		taken := make(map[string]bool, len(list))
		for _, b := range list {
			taken[b.Name] = true
		}
		now := s.nowMillis()
		for _, b := range incoming {
			if taken[b.Name] {
				skipped++
				continue
			}
			b = b.Clone()
			if b.LastUpdated == 0 {
				b.LastUpdated = now
			}
			taken[b.Name] = true
			list = append(list, b)
			added++
		}
		return list, nil
	}, logger.Int("incoming", len(incoming)))
	return added, skipped, err
}

// mutate runs one locked read-modify-write cycle.
func (s *Store) mutate(ctx context.Context, op string, fn func(context.Context, []model.Bundle) ([]model.Bundle, error), fields ...logger.Field) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l, ok := s.backend.(Locker); ok {
		unlock, err := l.Lock(ctx)
		if err != nil {
			return err
		}
		defer unlock()
	}

	list, err := s.GetAll(ctx)
	if err != nil {
		return err
	}

	next, err := fn(ctx, list)
	if err != nil {
		s.log.Debug("bundle mutation rejected", append(fields, logger.String("op", op), logger.Error(err))...)
		return err
	}

	if err := s.write(ctx, next); err != nil {
		s.log.Debug("bundle mutation rejected", append(fields, logger.String("op", op), logger.Error(err))...)
		return err
	}

	s.log.Debug("bundles saved", append(fields, logger.String("op", op), logger.Int("count", len(next)))...)
	return nil
}

// write validates, sorts and persists list. Nothing reaches the backend
// unless validation passed.
func (s *Store) write(ctx context.Context, list []model.Bundle) error {
	if err := model.ValidateCollection(list); err != nil {
		return err
	}

	sorted := make([]model.Bundle, len(list))
	for i, b := range list {
		sorted[i] = b.Clone()
	}
	model.SortByLastUpdated(sorted)

	data, err := json.MarshalIndent(sorted, "", "  ")
	if err != nil {
		return fmt.Errorf("encode bundles: %w", err)
	}
	if err := s.backend.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("write bundles: %w", err)
	}
	return nil
}

func (s *Store) nowMillis() int64 {
	return s.now().UnixMilli()
}
