package persistence

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Recorder observes backend operations. Implementations must be safe for concurrent use.
type Recorder interface {
	ObserveStoreOperation(collection, operation string, elapsed time.Duration, err error)
}

type noopRecorder struct{}

func (noopRecorder) ObserveStoreOperation(string, string, time.Duration, error) {}

// Store groups the typed collections sharing one backend.
type Store struct {
	backend  Backend
	codec    Codec
	newID    func() string
	recorder Recorder
	logger   *slog.Logger
	revision atomic.Uint64

	users         *Collection[User]
	equipment     *Collection[Equipment]
	rentals       *Collection[Rental]
	maintenance   *Collection[Maintenance]
	notifications *Collection[Notification]
}

// Option customises a Store.
type Option func(*Store)

// WithCodec overrides the JSON codec.
func WithCodec(codec Codec) Option {
	return func(s *Store) {
		if codec != nil {
			s.codec = codec
		}
	}
}

// WithIDGenerator overrides the UUID generator used for new records.
func WithIDGenerator(next func() string) Option {
	return func(s *Store) {
		if next != nil {
			s.newID = next
		}
	}
}

// WithRecorder attaches an operation recorder.
func WithRecorder(recorder Recorder) Option {
	return func(s *Store) {
		if recorder != nil {
			s.recorder = recorder
		}
	}
}

// WithLogger sets the logger used for write diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore wires the typed collections over backend.
func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:  backend,
		codec:    JSONCodec{},
		newID:    uuid.NewString,
		recorder: noopRecorder{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.users = newCollection(s, KeyUsers,
		func(u User) string { return u.ID },
		func(u User, id string) User { u.ID = id; return u })
	s.equipment = newCollection(s, KeyEquipment,
		func(e Equipment) string { return e.ID },
		func(e Equipment, id string) Equipment { e.ID = id; return e })
	s.rentals = newCollection(s, KeyRentals,
		func(r Rental) string { return r.ID },
		func(r Rental, id string) Rental { r.ID = id; return r })
	s.maintenance = newCollection(s, KeyMaintenance,
		func(m Maintenance) string { return m.ID },
		func(m Maintenance, id string) Maintenance { m.ID = id; return m })
	s.notifications = newCollection(s, KeyNotifications,
		func(n Notification) string { return n.ID },
		func(n Notification, id string) Notification { n.ID = id; return n })
	return s
}

func (s *Store) Users() *Collection[User] { return s.users }
func (s *Store) Equipment() *Collection[Equipment] { return s.equipment }
func (s *Store) Rentals() *Collection[Rental] { return s.rentals }
func (s *Store) Maintenance() *Collection[Maintenance] { return s.maintenance }
func (s *Store) Notifications() *Collection[Notification] { return s.notifications }

// NewID returns a fresh record identifier from the store's generator.
func (s *Store) NewID() string {
	return s.nextID()
}

// Revision increases after every successful write. Derived views use it as a cache key.
func (s *Store) Revision() uint64 {
	return s.revision.Load()
}

// Driver names the backend in use.
func (s *Store) Driver() string {
	if s.backend == nil {
		return ""
	}
	return s.backend.Driver()
}

// Close releases the backend.
func (s *Store) Close() error {
	if s.backend == nil {
		return nil
	}
	return s.backend.Close()
}

// LoadCurrentUser returns the stored session identity. ok is false when signed out.
func (s *Store) LoadCurrentUser(ctx context.Context) (user SessionUser, ok bool, err error) {
	started := time.Now()
	raw, err := s.backend.Read(ctx, KeyCurrentUser)
	s.observe(KeyCurrentUser, "read", started, err)
	if errors.Is(err, ErrKeyNotFound) {
		return SessionUser{}, false, nil
	}
	if err != nil {
		return SessionUser{}, false, storageError("read", KeyCurrentUser, err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return SessionUser{}, false, nil
	}
	if err := s.codec.Unmarshal(raw, &user); err != nil {
		return SessionUser{}, false, storageError("decode", KeyCurrentUser, err)
	}
	return user, true, nil
}

// SaveCurrentUser stores the session identity.
func (s *Store) SaveCurrentUser(ctx context.Context, user SessionUser) error {
	payload, err := s.codec.Marshal(user)
	if err != nil {
		return storageError("encode", KeyCurrentUser, err)
	}
	return s.write(ctx, "save", KeyCurrentUser, payload, 1)
}

// ClearCurrentUser removes the session identity.
func (s *Store) ClearCurrentUser(ctx context.Context) error {
	started := time.Now()
	err := s.backend.Delete(ctx, KeyCurrentUser)
	s.observe(KeyCurrentUser, "delete", started, err)
	if err != nil {
		return storageError("delete", KeyCurrentUser, err)
	}
	s.revision.Add(1)
	return nil
}

func (s *Store) nextID() string {
	return s.newID()
}

func (s *Store) write(ctx context.Context, op, key string, payload []byte, records int) error {
	started := time.Now()
	err := s.backend.Write(ctx, key, payload)
	s.observe(key, op, started, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to persist collection",
			"collection", key, "operation", op, "driver", s.backend.Driver(), "error", err)
		return storageError("write", key, err)
	}
	s.revision.Add(1)
	s.logger.DebugContext(ctx, "collection persisted",
		"collection", key, "operation", op, "records", records, "bytes", len(payload))
	return nil
}

func (s *Store) writeBatch(ctx context.Context, payloads map[string][]byte) error {
	batch, ok := s.backend.(BatchWriter)
	if !ok {
		// users goes last so an interrupted seed is retried on the next start.
		for _, key := range []string{KeyEquipment, KeyRentals, KeyMaintenance, KeyNotifications, KeyUsers} {
			payload, present := payloads[key]
			if !present {
				continue
			}
			if err := s.write(ctx, "seed", key, payload, -1); err != nil {
				return err
			}
		}
		return nil
	}
	started := time.Now()
	err := batch.WriteBatch(ctx, payloads)
	s.observe("*", "seed", started, err)
	if err != nil {
		return storageError("write", "batch", err)
	}
	s.revision.Add(1)
	return nil
}

func (s *Store) observe(key, op string, started time.Time, err error) {
	if errors.Is(err, ErrKeyNotFound) {
		err = nil
	}
	s.recorder.ObserveStoreOperation(key, op, time.Since(started), err)
}

func (s *Store) refreshAll() {
	s.users.Refresh()
	s.equipment.Refresh()
	s.rentals.Refresh()
	s.maintenance.Refresh()
	s.notifications.Refresh()
}
