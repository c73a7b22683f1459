package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docportal/internal/model"
	"docportal/internal/service"
)

type MockDocumentService struct {
	mock.Mock
}

var _ service.DocumentService = (*MockDocumentService)(nil)

func (m *MockDocumentService) List(ctx context.Context, user model.User, limit, offset int) (*service.DocumentListResult, error) {
	args := m.Called(ctx, user, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentListResult), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, user model.User, id string) (*model.Document, error) {
	args := m.Called(ctx, user, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Upload(ctx context.Context, user model.User, in service.UploadInput) (*model.Document, error) {
	args := m.Called(ctx, user, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Update(ctx context.Context, user model.User, id string, in service.UpdateInput) (*model.Document, error) {
	args := m.Called(ctx, user, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, user model.User, id string) error {
	args := m.Called(ctx, user, id)
	return args.Error(0)
}

func (m *MockDocumentService) ViewerAccess(ctx context.Context, user model.User, id string) (*service.ViewerAccess, error) {
	args := m.Called(ctx, user, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ViewerAccess), args.Error(1)
}

func (m *MockDocumentService) EngineHealth(ctx context.Context) service.EngineHealth {
	args := m.Called(ctx)
	return args.Get(0).(service.EngineHealth)
}
