package custody

import (
	"context"
	"errors"
	"testing"

	custom_error "equipment/pkg/errors"
	"equipment/pkg/metadata"
	"equipment/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) LockAsset(ctx context.Context, id int64) (*models.Asset, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Asset), args.Error(1)
}

func (m *MockUnitOfWork) ResolvePerson(ctx context.Context, id int64) (*models.Person, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Person), args.Error(1)
}

func (m *MockUnitOfWork) SaveAsset(ctx context.Context, asset models.Asset) error {
	args := m.Called(ctx, asset)
	return args.Error(0)
}

func (m *MockUnitOfWork) AppendRecord(ctx context.Context, record *models.TransitionRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// passthroughStore hands the mock unit of work to fn and reports fn's error.
type passthroughStore struct {
	uow UnitOfWork
}

func (s passthroughStore) Run(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error {
	return fn(ctx, s.uow)
}

func TestCheckoutCallOrder(t *testing.T) {
	uow := new(MockUnitOfWork)
	service := NewService(passthroughStore{uow: uow}, nil, zap.NewNop())

	asset := &models.Asset{ID: 7, Status: metadata.StatusAvailable, Version: 3}
	holder := int64(42)

	lock := uow.On("LockAsset", mock.Anything, int64(7)).Return(asset, nil).Once()
	resolve := uow.On("ResolvePerson", mock.Anything, int64(42)).Return(&models.Person{ID: 42, FullName: "Ola"}, nil).Once().NotBefore(lock)
	save := uow.On("SaveAsset", mock.Anything, models.Asset{ID: 7, Status: metadata.StatusAssigned, HolderID: &holder, Version: 3}).
		Return(nil).Once().NotBefore(resolve)
	uow.On("AppendRecord", mock.Anything, mock.MatchedBy(func(r *models.TransitionRecord) bool {
		return r.AssetID == 7 && r.Action == metadata.ActionCheckout && r.PersonID != nil && *r.PersonID == 42 && r.ActorID == 5
	})).Return(nil).Once().NotBefore(save)

	result, err := service.Checkout(context.Background(), Command{AssetID: 7, ActorID: 5}, 42)

	assert.NoError(t, err)
	assert.Equal(t, metadata.StatusAssigned, result.Status)
	uow.AssertExpectations(t)
}

func TestInvalidTransitionWritesNothing(t *testing.T) {
	uow := new(MockUnitOfWork)
	service := NewService(passthroughStore{uow: uow}, nil, zap.NewNop())

	uow.On("LockAsset", mock.Anything, int64(7)).Return(&models.Asset{ID: 7, Status: metadata.StatusRetired}, nil).Once()

	_, err := service.ReportFound(context.Background(), Command{AssetID: 7, ActorID: 5})

	assert.Equal(t, custom_error.KindInvalidTransition, custom_error.KindOf(err))
	uow.AssertExpectations(t)
	uow.AssertNotCalled(t, "SaveAsset", mock.Anything, mock.Anything)
	uow.AssertNotCalled(t, "AppendRecord", mock.Anything, mock.Anything)
}

func TestNonCheckoutSkipsPersonLookup(t *testing.T) {
	uow := new(MockUnitOfWork)
	service := NewService(passthroughStore{uow: uow}, nil, zap.NewNop())

	uow.On("LockAsset", mock.Anything, int64(7)).Return(&models.Asset{ID: 7, Status: metadata.StatusAvailable}, nil).Once()
	uow.On("SaveAsset", mock.Anything, mock.Anything).Return(nil).Once()
	uow.On("AppendRecord", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := service.Repair(context.Background(), Command{AssetID: 7, ActorID: 5, Notes: "cracked screen"})

	assert.NoError(t, err)
	uow.AssertNotCalled(t, "ResolvePerson", mock.Anything, mock.Anything)
	uow.AssertExpectations(t)
}

func TestAppendErrorPropagates(t *testing.T) {
	uow := new(MockUnitOfWork)
	service := NewService(passthroughStore{uow: uow}, nil, zap.NewNop())
	appendErr := &custom_error.PersistenceError{Op: "append transition record", Err: errors.New("connection reset")}

	uow.On("LockAsset", mock.Anything, int64(7)).Return(&models.Asset{ID: 7, Status: metadata.StatusAvailable}, nil).Once()
	uow.On("SaveAsset", mock.Anything, mock.Anything).Return(nil).Once()
	uow.On("AppendRecord", mock.Anything, mock.Anything).Return(appendErr).Once()

	result, err := service.Dispose(context.Background(), Command{AssetID: 7, ActorID: 5, Notes: "scrapped"})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, appendErr)
	uow.AssertExpectations(t)
}
