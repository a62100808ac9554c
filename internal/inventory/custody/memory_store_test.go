package custody

import (
	"context"
	"sync"
	"time"

	custom_error "equipment/pkg/errors"
	"equipment/pkg/models"
)

// memoryStore mimics the database semantics the coordinator relies on: a
// per-asset exclusive lock held until the unit of work ends, and writes that
// only become visible on commit.
type memoryStore struct {
	mu      sync.Mutex
	assets  map[int64]models.Asset
	people  map[int64]models.Person
	records []models.TransitionRecord
	locks   map[int64]chan struct{}

	lockTimeout time.Duration
	saveErr     error
	appendErr   error
	afterLock   func(ctx context.Context, id int64)
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		assets:      map[int64]models.Asset{},
		people:      map[int64]models.Person{},
		locks:       map[int64]chan struct{}{},
		lockTimeout: time.Second,
	}
}

func (s *memoryStore) addAsset(asset models.Asset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[asset.ID] = asset
}

func (s *memoryStore) addPerson(person models.Person) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.people[person.ID] = person
}

func (s *memoryStore) asset(id int64) models.Asset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assets[id]
}

func (s *memoryStore) recordsFor(id int64) []models.TransitionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.TransitionRecord
	for _, r := range s.records {
		if r.AssetID == id {
			out = append(out, r)
		}
	}
	return out
}

func (s *memoryStore) lockFor(id int64) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[id] = l
	}
	return l
}

func (s *memoryStore) Run(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error {
	uow := &memoryUnitOfWork{store: s}
	defer uow.release()

	if err := fn(ctx, uow); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return &custom_error.PersistenceError{Op: "commit transaction", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, asset := range uow.saved {
		asset.Version++
		s.assets[asset.ID] = asset
	}
	s.records = append(s.records, uow.appended...)
	return nil
}

type memoryUnitOfWork struct {
	store    *memoryStore
	held     []chan struct{}
	saved    []models.Asset
	appended []models.TransitionRecord
}

func (u *memoryUnitOfWork) release() {
	for _, l := range u.held {
		<-l
	}
}

func (u *memoryUnitOfWork) LockAsset(ctx context.Context, id int64) (*models.Asset, error) {
	lock := u.store.lockFor(id)
	timer := time.NewTimer(u.store.lockTimeout)
	defer timer.Stop()

	select {
	case lock <- struct{}{}:
		u.held = append(u.held, lock)
	case <-timer.C:
		return nil, &custom_error.ConcurrencyTimeoutError{Op: "lock asset"}
	case <-ctx.Done():
		return nil, &custom_error.ConcurrencyTimeoutError{Op: "lock asset", Err: ctx.Err()}
	}

	if u.store.afterLock != nil {
		u.store.afterLock(ctx, id)
	}

	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	asset, ok := u.store.assets[id]
	if !ok {
		return nil, &custom_error.NotFoundError{Resource: "asset", ID: id}
	}
	return &asset, nil
}

func (u *memoryUnitOfWork) ResolvePerson(_ context.Context, id int64) (*models.Person, error) {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	person, ok := u.store.people[id]
	if !ok {
		return nil, &custom_error.NotFoundError{Resource: "person", ID: id}
	}
	return &person, nil
}

func (u *memoryUnitOfWork) SaveAsset(_ context.Context, asset models.Asset) error {
	if u.store.saveErr != nil {
		return u.store.saveErr
	}
	u.saved = append(u.saved, asset)
	return nil
}

func (u *memoryUnitOfWork) AppendRecord(_ context.Context, record *models.TransitionRecord) error {
	if u.store.appendErr != nil {
		return u.store.appendErr
	}
	record.RecordedAt = record.OccurredAt
	u.appended = append(u.appended, *record)
	return nil
}
