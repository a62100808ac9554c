package people

import (
	"context"

	"equipment/internal/repository"
	custom_error "equipment/pkg/errors"
	"equipment/pkg/models"

	"github.com/doug-martin/goqu/v9"
)

type PeopleRepository interface {
	Resolve(ctx context.Context, tx *goqu.TxDatabase, id int64) (*models.Person, error)
}

type peopleRepositoryImpl struct {
	repository *repository.Repository
}

// Resolve loads the person inside tx so the lookup shares the caller's unit of
// work. A nil tx reads outside any transaction.
func (r *peopleRepositoryImpl) Resolve(ctx context.Context, tx *goqu.TxDatabase, id int64) (*models.Person, error) {
	query := r.repository.GoquDBWrapper.Select("id", "full_name", "email")
	if tx != nil {
		query = tx.Select("id", "full_name", "email")
	}

	var person models.Person
	query = query.
		From("people").
		Where(goqu.Ex{"id": id})

	found, err := query.Executor().ScanStructContext(ctx, &person)
	if err != nil {
		return nil, repository.WrapError("resolve person", err)
	}
	if !found {
		return nil, &custom_error.NotFoundError{Resource: "person", ID: id}
	}

	return &person, nil
}

func NewRepository(r *repository.Repository) PeopleRepository {
	return &peopleRepositoryImpl{repository: r}
}
