package assets

import (
	"context"
	"fmt"

	"equipment/internal/repository"
	custom_error "equipment/pkg/errors"
	"equipment/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

const assetsTable = "assets"

type AssetsRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *AssetsRepository {
	return &AssetsRepository{
		repository: r,
	}
}

// LockAndLoad reads the asset row and holds an exclusive lock on it until tx ends.
func (r *AssetsRepository) LockAndLoad(ctx context.Context, tx *goqu.TxDatabase, id int64) (*models.Asset, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction is required for LockAndLoad")
	}

	query := r.selectAsset(tx.From(goqu.T(assetsTable))).
		Where(goqu.Ex{"id": id}).
		ForUpdate(exp.Wait)

	var asset models.Asset
	found, err := query.Executor().ScanStructContext(ctx, &asset)
	if err != nil {
		return nil, repository.WrapLockError(ctx, "lock asset", err)
	}
	if !found {
		return nil, &custom_error.NotFoundError{Resource: "asset", ID: id}
	}

	return &asset, nil
}

// Save writes status and holder back. The version guard only fails if the row
// was changed without holding the lock taken by LockAndLoad.
func (r *AssetsRepository) Save(ctx context.Context, tx *goqu.TxDatabase, asset models.Asset) error {
	if tx == nil {
		return fmt.Errorf("transaction is required for Save")
	}

	var holder interface{}
	if asset.HolderID != nil {
		holder = *asset.HolderID
	}

	result, err := tx.Update(assetsTable).
		Set(goqu.Record{
			"status":     string(asset.Status),
			"holder_id":  holder,
			"version":    goqu.L("version + 1"),
			"updated_at": goqu.L("NOW()"),
		}).
		Where(goqu.Ex{
			"id":      asset.ID,
			"version": asset.Version,
		}).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return repository.WrapError("save asset", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return repository.WrapError("save asset", err)
	}
	if rowsAffected == 0 {
		return &custom_error.PersistenceError{
			Op:  "save asset",
			Err: fmt.Errorf("asset %d changed since version %d", asset.ID, asset.Version),
		}
	}

	return nil
}

func (r *AssetsRepository) GetAsset(ctx context.Context, id int64) (*models.Asset, error) {
	query := r.selectAsset(r.repository.GoquDBWrapper.From(goqu.T(assetsTable))).
		Where(goqu.Ex{"id": id})

	var asset models.Asset
	found, err := query.Executor().ScanStructContext(ctx, &asset)
	if err != nil {
		return nil, repository.WrapError("get asset", err)
	}
	if !found {
		return nil, &custom_error.NotFoundError{Resource: "asset", ID: id}
	}

	return &asset, nil
}

func (r *AssetsRepository) selectAsset(ds *goqu.SelectDataset) *goqu.SelectDataset {
	return ds.Select(
		"id",
		"item_serial",
		"status",
		"holder_id",
		"version",
		"updated_at",
	)
}
