package auditlog

import (
	"context"
	"fmt"

	"equipment/internal/repository"
	"equipment/pkg/models"

	"github.com/doug-martin/goqu/v9"
)

const ledgerTable = "transition_records"

// LedgerRepository is insert-only; the table trigger rejects UPDATE and DELETE.
type LedgerRepository struct {
	repository *repository.Repository
}

func (r *LedgerRepository) Append(ctx context.Context, tx *goqu.TxDatabase, record *models.TransitionRecord) error {
	if tx == nil {
		return fmt.Errorf("transaction is required for Append")
	}

	row := goqu.Record{
		"id":          record.ID.String(),
		"asset_id":    record.AssetID,
		"actor_id":    record.ActorID,
		"action":      string(record.Action),
		"occurred_at": record.OccurredAt,
	}
	if record.PersonID != nil {
		row["person_id"] = *record.PersonID
	}
	if record.Condition != nil {
		row["condition"] = string(*record.Condition)
	}
	if record.Notes != nil {
		row["notes"] = *record.Notes
	}

	query := tx.Insert(ledgerTable).
		Rows(row).
		Returning("recorded_at")

	if _, err := query.Executor().ScanValContext(ctx, &record.RecordedAt); err != nil {
		return repository.WrapError("append transition record", err)
	}

	return nil
}

// History returns the ledger of one asset, oldest first.
func (r *LedgerRepository) History(ctx context.Context, assetID int64) ([]models.TransitionRecord, error) {
	query := r.repository.GoquDBWrapper.
		From(goqu.T(ledgerTable).As("t")).
		Select(
			goqu.I("t.id").As("id"),
			goqu.I("t.asset_id").As("asset_id"),
			goqu.I("t.person_id").As("person_id"),
			goqu.I("t.actor_id").As("actor_id"),
			goqu.I("t.action").As("action"),
			goqu.I("t.condition").As("condition"),
			goqu.I("t.notes").As("notes"),
			goqu.I("t.occurred_at").As("occurred_at"),
			goqu.I("t.recorded_at").As("recorded_at"),
		).
		Where(goqu.Ex{"t.asset_id": assetID}).
		Order(goqu.I("t.occurred_at").Asc(), goqu.I("t.recorded_at").Asc())

	records := []models.TransitionRecord{}
	if err := query.Executor().ScanStructsContext(ctx, &records); err != nil {
		return nil, repository.WrapError("load transition history", err)
	}

	return records, nil
}

func NewRepository(r *repository.Repository) *LedgerRepository {
	return &LedgerRepository{repository: r}
}
