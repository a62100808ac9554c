package custody

import (
	"context"
	"time"

	"equipment/internal/auditlog"
	"equipment/internal/inventory/assets"
	"equipment/internal/people"
	"equipment/internal/repository"
	"equipment/pkg/models"

	"github.com/doug-martin/goqu/v9"
)

// UnitOfWork is the set of reads and writes available inside one atomic
// transition. Everything done through it commits or rolls back together.
type UnitOfWork interface {
	LockAsset(ctx context.Context, id int64) (*models.Asset, error)
	ResolvePerson(ctx context.Context, id int64) (*models.Person, error)
	SaveAsset(ctx context.Context, asset models.Asset) error
	AppendRecord(ctx context.Context, record *models.TransitionRecord) error
}

// Store opens units of work. fn's error aborts the unit; a nil return commits it.
type Store interface {
	Run(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
}

type PostgresStore struct {
	repository  *repository.Repository
	assets      *assets.AssetsRepository
	people      people.PeopleRepository
	ledger      *auditlog.LedgerRepository
	lockTimeout time.Duration
}

func NewPostgresStore(
	r *repository.Repository,
	assetsRepo *assets.AssetsRepository,
	peopleRepo people.PeopleRepository,
	ledger *auditlog.LedgerRepository,
	lockTimeout time.Duration,
) *PostgresStore {
	return &PostgresStore{
		repository:  r,
		assets:      assetsRepo,
		people:      peopleRepo,
		ledger:      ledger,
		lockTimeout: lockTimeout,
	}
}

func (s *PostgresStore) Run(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error {
	return repository.WithTransaction(ctx, s.repository.GoquDBWrapper, func(tx *goqu.TxDatabase) error {
		if err := repository.SetLockTimeout(ctx, tx, s.lockTimeout); err != nil {
			return err
		}
		return fn(ctx, &postgresUnitOfWork{tx: tx, store: s})
	})
}

type postgresUnitOfWork struct {
	tx    *goqu.TxDatabase
	store *PostgresStore
}

func (u *postgresUnitOfWork) LockAsset(ctx context.Context, id int64) (*models.Asset, error) {
	return u.store.assets.LockAndLoad(ctx, u.tx, id)
}

func (u *postgresUnitOfWork) ResolvePerson(ctx context.Context, id int64) (*models.Person, error) {
	return u.store.people.Resolve(ctx, u.tx, id)
}

func (u *postgresUnitOfWork) SaveAsset(ctx context.Context, asset models.Asset) error {
	return u.store.assets.Save(ctx, u.tx, asset)
}

func (u *postgresUnitOfWork) AppendRecord(ctx context.Context, record *models.TransitionRecord) error {
	return u.store.ledger.Append(ctx, u.tx, record)
}
