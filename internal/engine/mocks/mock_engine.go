package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"docportal/internal/engine"
)

type MockClient struct {
	mock.Mock
}

var _ engine.Client = (*MockClient)(nil)

func (m *MockClient) Upload(ctx context.Context, content []byte, filename string, opts engine.UploadOptions) (string, error) {
	args := m.Called(ctx, content, filename, opts)
	return args.String(0), args.Error(1)
}

func (m *MockClient) UploadFromURL(ctx context.Context, opts engine.URLUploadOptions) (string, error) {
	args := m.Called(ctx, opts)
	return args.String(0), args.Error(1)
}

func (m *MockClient) Delete(ctx context.Context, documentID string) error {
	args := m.Called(ctx, documentID)
	return args.Error(0)
}

func (m *MockClient) FetchPDF(ctx context.Context, documentID, token string) ([]byte, error) {
	args := m.Called(ctx, documentID, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockClient) Health(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockClient) IssueToken(documentID string, permissions []string, subject string, ttl time.Duration) (engine.Token, error) {
	args := m.Called(documentID, permissions, subject, ttl)
	return args.Get(0).(engine.Token), args.Error(1)
}

func (m *MockClient) ViewerURL(documentID, token string) string {
	return m.Called(documentID, token).String(0)
}

func (m *MockClient) ThumbnailURL(documentID, token string, width int) string {
	return m.Called(documentID, token, width).String(0)
}

func (m *MockClient) DownloadURL(documentID, token string) string {
	return m.Called(documentID, token).String(0)
}
