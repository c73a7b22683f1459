package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docportal/internal/signing"
)

type MockSigner struct {
	mock.Mock
}

var _ signing.Signer = (*MockSigner)(nil)

func (m *MockSigner) Sign(ctx context.Context, pdf []byte, signerName, reason string, spec signing.Spec) ([]byte, error) {
	args := m.Called(ctx, pdf, signerName, reason, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
