package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"docportal/internal/model"
	"docportal/internal/service"
)

type MockSignService struct {
	mock.Mock
}

var _ service.SignService = (*MockSignService)(nil)

func (m *MockSignService) Sign(ctx context.Context, user model.User, documentID string, req service.SignRequest) (*service.SignResult, error) {
	args := m.Called(ctx, user, documentID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SignResult), args.Error(1)
}

type MockSignatureImageService struct {
	mock.Mock
}

var _ service.SignatureImageService = (*MockSignatureImageService)(nil)

func (m *MockSignatureImageService) Put(ctx context.Context, user model.User, r io.Reader) error {
	args := m.Called(ctx, user, r)
	return args.Error(0)
}

func (m *MockSignatureImageService) URL(ctx context.Context, user model.User) (*service.SignatureImageURL, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SignatureImageURL), args.Error(1)
}

func (m *MockSignatureImageService) Delete(ctx context.Context, user model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
