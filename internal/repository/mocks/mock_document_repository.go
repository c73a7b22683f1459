package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docportal/internal/access"
	"docportal/internal/model"
	"docportal/internal/repository"
)

type MockDocumentRepository struct {
	mock.Mock
}

var _ repository.DocumentRepository = (*MockDocumentRepository)(nil)

func (m *MockDocumentRepository) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, id string, f access.Filter) (*model.Document, error) {
	args := m.Called(ctx, id, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) List(ctx context.Context, f access.Filter, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	args := m.Called(ctx, f, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Document]), args.Error(1)
}

func (m *MockDocumentRepository) Update(ctx context.Context, id string, f access.Filter, u repository.DocumentUpdate) (*model.Document, error) {
	args := m.Called(ctx, id, f, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) UpdateSize(ctx context.Context, id string, size int64) error {
	args := m.Called(ctx, id, size)
	return args.Error(0)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, id string, f access.Filter) error {
	args := m.Called(ctx, id, f)
	return args.Error(0)
}
