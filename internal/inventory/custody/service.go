package custody

import (
	"context"
	"strings"
	"time"

	"equipment/internal/lifecycle"
	custom_error "equipment/pkg/errors"
	"equipment/pkg/metadata"
	"equipment/pkg/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// TransitionPublisher is told about every committed transition.
type TransitionPublisher interface {
	PublishTransition(ctx context.Context, record models.TransitionRecord, status metadata.Status) error
}

// Command carries the fields shared by every action request.
type Command struct {
	AssetID int64
	ActorID int64
	When    *time.Time // defaults to the service clock
	Notes   string
}

type Result struct {
	Status      metadata.Status         `json:"status"`
	Record      models.TransitionRecord `json:"record"`
	Description string                  `json:"description"`
}

// DefaultPublishTimeout bounds a single post-commit event publish.
const DefaultPublishTimeout = 5 * time.Second

type Service struct {
	store          Store
	publisher      TransitionPublisher
	publishTimeout time.Duration
	logger         *zap.Logger
	tracer         trace.Tracer
	now            func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithPublishTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		s.publishTimeout = timeout
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// NewService builds the coordinator. publisher may be nil.
func NewService(store Store, publisher TransitionPublisher, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:          store,
		publisher:      publisher,
		publishTimeout: DefaultPublishTimeout,
		logger:         logger,
		tracer:         otel.Tracer("equipment/custody"),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Checkout(ctx context.Context, cmd Command, personID int64) (*Result, error) {
	return s.execute(ctx, request{
		command:   cmd,
		requested: metadata.ActionCheckout,
		applied:   metadata.ActionCheckout,
		personID:  &personID,
	})
}

// Checkin returns an assigned asset. The reported condition decides whether
// it becomes available, goes to repair, or is marked missing.
func (s *Service) Checkin(ctx context.Context, cmd Command, condition metadata.Condition) (*Result, error) {
	condition = metadata.NormalizeCondition(string(condition))
	return s.execute(ctx, request{
		command:   cmd,
		requested: metadata.ActionCheckin,
		applied:   lifecycle.ActionForCondition(condition),
		condition: &condition,
	})
}

func (s *Service) Repair(ctx context.Context, cmd Command) (*Result, error) {
	return s.execute(ctx, simple(cmd, metadata.ActionRepair))
}

func (s *Service) CompleteRepair(ctx context.Context, cmd Command) (*Result, error) {
	return s.execute(ctx, simple(cmd, metadata.ActionCompleteRepair))
}

func (s *Service) Dispose(ctx context.Context, cmd Command) (*Result, error) {
	return s.execute(ctx, simple(cmd, metadata.ActionDispose))
}

func (s *Service) ReportLost(ctx context.Context, cmd Command) (*Result, error) {
	return s.execute(ctx, simple(cmd, metadata.ActionLost))
}

func (s *Service) ReportFound(ctx context.Context, cmd Command) (*Result, error) {
	return s.execute(ctx, simple(cmd, metadata.ActionFound))
}

type request struct {
	command Command
	// requested is what the operator asked for; applied is the table edge
	// taken. They differ only for a check-in with a damaged or lost condition.
	requested metadata.Action
	applied   metadata.Action
	personID  *int64
	condition *metadata.Condition
}

func simple(cmd Command, action metadata.Action) request {
	return request{command: cmd, requested: action, applied: action}
}

func (s *Service) execute(ctx context.Context, req request) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "custody."+string(req.requested), trace.WithAttributes(
		attribute.Int64("asset.id", req.command.AssetID),
		attribute.Int64("actor.id", req.command.ActorID),
		attribute.String("asset.action", string(req.applied)),
	))
	defer span.End()

	var result Result
	err := s.store.Run(ctx, func(ctx context.Context, uow UnitOfWork) error {
		asset, err := uow.LockAsset(ctx, req.command.AssetID)
		if err != nil {
			return err
		}

		var person *models.Person
		if req.personID != nil {
			if person, err = uow.ResolvePerson(ctx, *req.personID); err != nil {
				return err
			}
		}

		// Validation must see the status read under the lock.
		if req.requested != req.applied {
			if _, err := lifecycle.Validate(asset.Status, req.requested); err != nil {
				return err
			}
		}
		decision, err := lifecycle.Validate(asset.Status, req.applied)
		if err != nil {
			return err
		}

		next, affected := applyDecision(*asset, decision, person)
		if err := uow.SaveAsset(ctx, next); err != nil {
			return err
		}

		record := s.newRecord(req, decision.Action, affected)
		if err := uow.AppendRecord(ctx, &record); err != nil {
			return err
		}

		result = Result{
			Status:      next.Status,
			Record:      record,
			Description: decision.Description,
		}
		return nil
	})
	if err != nil {
		s.logFailure(req, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, custom_error.KindOf(err).String())
		return nil, err
	}

	span.SetAttributes(attribute.String("asset.status", string(result.Status)))
	s.logger.Info("Asset transition committed",
		zap.Int64("asset_id", result.Record.AssetID),
		zap.String("action", string(result.Record.Action)),
		zap.String("status", string(result.Status)),
		zap.Int64("actor_id", result.Record.ActorID),
		zap.Stringer("record_id", result.Record.ID),
	)

	if s.publisher != nil {
		go s.publish(context.WithoutCancel(ctx), result)
	}

	return &result, nil
}

// applyDecision computes the asset row after the transition and the person
// the ledger entry is attributed to.
func applyDecision(asset models.Asset, decision lifecycle.Decision, party *models.Person) (models.Asset, *int64) {
	next := asset
	next.Status = decision.Next
	affected := asset.HolderID

	switch lifecycle.HolderPolicyFor(decision.Action) {
	case lifecycle.HolderAssign:
		id := party.ID
		next.HolderID = &id
		affected = &id
	case lifecycle.HolderClear:
		next.HolderID = nil
	}

	return next, affected
}

func (s *Service) newRecord(req request, action metadata.Action, personID *int64) models.TransitionRecord {
	occurredAt := s.now()
	if req.command.When != nil {
		occurredAt = *req.command.When
	}

	record := models.TransitionRecord{
		ID:         uuid.New(),
		AssetID:    req.command.AssetID,
		PersonID:   personID,
		ActorID:    req.command.ActorID,
		Action:     action,
		Condition:  req.condition,
		OccurredAt: occurredAt.UTC(),
	}
	if notes := strings.TrimSpace(req.command.Notes); notes != "" {
		record.Notes = &notes
	}

	return record
}

func (s *Service) publish(ctx context.Context, result Result) {
	ctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()

	if err := s.publisher.PublishTransition(ctx, result.Record, result.Status); err != nil {
		s.logger.Warn("Unable to publish transition event",
			zap.Stringer("record_id", result.Record.ID),
			zap.Error(err),
		)
	}
}

func (s *Service) logFailure(req request, err error) {
	fields := []zap.Field{
		zap.Int64("asset_id", req.command.AssetID),
		zap.String("action", string(req.requested)),
		zap.Int64("actor_id", req.command.ActorID),
		zap.Stringer("kind", custom_error.KindOf(err)),
		zap.Error(err),
	}

	switch custom_error.KindOf(err) {
	case custom_error.KindPersistence, custom_error.KindUnknown:
		s.logger.Error("Asset transition failed", fields...)
	default:
		s.logger.Warn("Asset transition rejected", fields...)
	}
}
