package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docportal/internal/access"
	"docportal/internal/engine"
	engineMocks "docportal/internal/engine/mocks"
	"docportal/internal/logging"
	"docportal/internal/model"
	repoMocks "docportal/internal/repository/mocks"
	"docportal/internal/signing"
	signMocks "docportal/internal/signing/mocks"
	"docportal/internal/storage"
	storeMocks "docportal/internal/storage/mocks"
)

type signFixture struct {
	eng    *engineMocks.MockClient
	signer *signMocks.MockSigner
	repo   *repoMocks.MockDocumentRepository
	images *storeMocks.MockStorage
	svc    SignService
}

func newSignFixture(withImages bool) *signFixture {
	f := &signFixture{
		eng:    new(engineMocks.MockClient),
		signer: new(signMocks.MockSigner),
		repo:   new(repoMocks.MockDocumentRepository),
	}
	opts := SignOptions{DefaultImageKey: "signatures/default.png"}
	if withImages {
		f.images = new(storeMocks.MockStorage)
		opts.Images = f.images
	}
	f.svc = NewSignService(f.eng, f.signer, f.repo, logging.Nop(), opts)
	return f
}

func (f *signFixture) assertExpectations(t *testing.T) {
	f.eng.AssertExpectations(t)
	f.signer.AssertExpectations(t)
	f.repo.AssertExpectations(t)
	if f.images != nil {
		f.images.AssertExpectations(t)
	}
}

var (
	signedDoc  = &model.Document{ID: "doc-1", EngineID: "engine-1", Title: "Report", Filename: "report.pdf", FileType: "application/pdf", Author: "Ada", OwnerID: "user-1"}
	invisible  = signing.Spec{Kind: signing.KindInvisible}
	signerName = "Ada Lovelace"
)

// expectFetch sets up the authorizing and fetching stages for signedDoc.
func (f *signFixture) expectFetch() {
	f.repo.On("FindByID", mock.Anything, "doc-1", access.Unrestricted()).Return(signedDoc, nil)
	f.eng.On("IssueToken", "engine-1", []string{"read-document", "download"}, "", engine.DefaultTokenTTL).
		Return(engine.Token{Value: "jwt"}, nil)
	f.eng.On("FetchPDF", mock.Anything, "engine-1", "jwt").Return([]byte("%PDF-orig"), nil)
}

func requireStage(t *testing.T, err error, stage SignStage) {
	t.Helper()
	var sErr *SignError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, stage, sErr.Stage)
	assert.ErrorIs(t, err, ErrSigningFailed)
}

func TestSignService_ReplaceOriginal(t *testing.T) {
	f := newSignFixture(false)
	f.expectFetch()
	f.signer.On("Sign", mock.Anything, []byte("%PDF-orig"), signerName, "Approval", invisible).Return([]byte("%PDF-signed"), nil)
	f.eng.On("Upload", mock.Anything, []byte("%PDF-signed"), "report.pdf", engine.UploadOptions{
		ContentType: "application/pdf",
		DocumentID:  "engine-1",
		Overwrite:   true,
	}).Return("engine-1", nil)
	f.repo.On("UpdateSize", mock.Anything, "doc-1", int64(len("%PDF-signed"))).Return(nil)

	res, err := f.svc.Sign(context.Background(), ownerUser, "doc-1", SignRequest{
		SignerName:      signerName,
		Reason:          "Approval",
		Spec:            invisible,
		ReplaceOriginal: true,
	})

	require.NoError(t, err)
	assert.Equal(t, &SignResult{DocumentID: "doc-1", Replaced: true}, res)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestSignService_SignedCopy(t *testing.T) {
	f := newSignFixture(false)
	f.expectFetch()
	f.signer.On("Sign", mock.Anything, mock.Anything, signerName, "", invisible).Return([]byte("%PDF-signed"), nil)
	f.eng.On("Upload", mock.Anything, []byte("%PDF-signed"), "report.pdf", engine.UploadOptions{ContentType: "application/pdf"}).
		Return("engine-2", nil)
	f.repo.On("Create", mock.Anything, mock.MatchedBy(func(d *model.Document) bool {
		return d.ID != "doc-1" &&
			d.EngineID == "engine-2" &&
			d.Title == "Report (Signed)" &&
			d.Filename == "report.pdf" &&
			d.FileType == "application/pdf" &&
			d.Author == "Ada" &&
			d.OwnerID == "user-1" &&
			d.Size == int64(len("%PDF-signed"))
	})).Return(&model.Document{ID: "doc-2"}, nil)

	res, err := f.svc.Sign(context.Background(), ownerUser, "doc-1", SignRequest{SignerName: signerName, Spec: invisible})

	require.NoError(t, err)
	assert.Equal(t, &SignResult{DocumentID: "doc-2"}, res)
	f.repo.AssertNotCalled(t, "UpdateSize", mock.Anything, mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestSignService_Authorizing(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		user    model.User
		req     SignRequest
		found   *model.Document
		findErr error
		wantErr error
	}{
		{
			name:    "missing document",
			user:    ownerUser,
			req:     SignRequest{SignerName: signerName, Spec: invisible},
			findErr: sql.ErrNoRows,
			wantErr: ErrNotFound,
		},
		{
			name:    "non-owner is forbidden",
			user:    otherUser,
			req:     SignRequest{SignerName: signerName, Spec: invisible},
			found:   signedDoc,
			wantErr: ErrForbidden,
		},
		{
			name:    "administrator in admin mode is still forbidden",
			user:    adminUser,
			req:     SignRequest{SignerName: signerName, Spec: invisible},
			found:   signedDoc,
			wantErr: ErrForbidden,
		},
		{
			name:    "non-owner with an undecodable body is forbidden",
			user:    otherUser,
			req:     SignRequest{BodyErr: errors.New("unexpected end of JSON input")},
			found:   signedDoc,
			wantErr: ErrForbidden,
		},
		{
			name:    "owner with an undecodable body",
			user:    ownerUser,
			req:     SignRequest{BodyErr: errors.New("unexpected end of JSON input")},
			found:   signedDoc,
			wantErr: ErrValidation,
		},
		{
			name:    "missing signer name",
			user:    ownerUser,
			req:     SignRequest{SignerName: " ", Spec: invisible},
			found:   signedDoc,
			wantErr: ErrValidation,
		},
		{
			name:    "invalid signature spec",
			user:    ownerUser,
			req:     SignRequest{SignerName: signerName, Spec: signing.Spec{Kind: signing.KindVisible}},
			found:   signedDoc,
			wantErr: ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSignFixture(false)
			if tt.findErr != nil {
				f.repo.On("FindByID", mock.Anything, "doc-1", access.Unrestricted()).Return(nil, tt.findErr)
			} else {
				f.repo.On("FindByID", mock.Anything, "doc-1", access.Unrestricted()).Return(tt.found, nil)
			}

			res, err := f.svc.Sign(ctx, tt.user, "doc-1", tt.req)

			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.wantErr)
			requireStage(t, err, StageAuthorizing)
			f.eng.AssertNotCalled(t, "FetchPDF", mock.Anything, mock.Anything, mock.Anything)
			f.assertExpectations(t)
		})
	}
}

func TestSignService_StageFailures(t *testing.T) {
	ctx := context.Background()
	req := SignRequest{SignerName: signerName, Spec: invisible}

	t.Run("fetching", func(t *testing.T) {
		f := newSignFixture(false)
		f.repo.On("FindByID", mock.Anything, "doc-1", access.Unrestricted()).Return(signedDoc, nil)
		f.eng.On("IssueToken", "engine-1", mock.Anything, "", engine.DefaultTokenTTL).Return(engine.Token{Value: "jwt"}, nil)
		f.eng.On("FetchPDF", mock.Anything, "engine-1", "jwt").Return(nil, &engine.Error{Op: "download", StatusCode: http.StatusNotFound})

		_, err := f.svc.Sign(ctx, ownerUser, "doc-1", req)

		requireStage(t, err, StageFetching)
		f.signer.AssertNotCalled(t, "Sign", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("signing", func(t *testing.T) {
		f := newSignFixture(false)
		f.expectFetch()
		f.signer.On("Sign", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &signing.Error{StatusCode: http.StatusBadRequest, Code: "invalid_pdf"})

		_, err := f.svc.Sign(ctx, ownerUser, "doc-1", req)

		requireStage(t, err, StageSigning)
		var sErr *signing.Error
		assert.ErrorAs(t, err, &sErr)
		f.eng.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("publishing is not retried", func(t *testing.T) {
		f := newSignFixture(false)
		f.expectFetch()
		f.signer.On("Sign", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]byte("signed"), nil)
		f.eng.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", unavailable("upload"))

		_, err := f.svc.Sign(ctx, ownerUser, "doc-1", req)

		requireStage(t, err, StagePublishing)
		f.eng.AssertNumberOfCalls(t, "Upload", 1)
		f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("recording", func(t *testing.T) {
		f := newSignFixture(false)
		f.expectFetch()
		f.signer.On("Sign", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]byte("signed"), nil)
		f.eng.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("engine-1", nil)
		f.repo.On("UpdateSize", mock.Anything, "doc-1", int64(6)).Return(errors.New("db fail"))

		_, err := f.svc.Sign(ctx, ownerUser, "doc-1", SignRequest{SignerName: signerName, Spec: invisible, ReplaceOriginal: true})

		requireStage(t, err, StageRecording)
		assert.ErrorContains(t, err, "db fail")
		f.eng.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestSignService_CustomImage(t *testing.T) {
	visible := signing.Spec{
		Kind:       signing.KindVisible,
		Rect:       signing.Rect{X: 10, Y: 10, Width: 100, Height: 40},
		Appearance: signing.DefaultAppearance(),
	}
	png := []byte("\x89PNG\r\n\x1a\nimage")

	t.Run("falls back to the default image", func(t *testing.T) {
		f := newSignFixture(true)
		f.expectFetch()
		f.images.On("Get", mock.Anything, "signatures/user-1.png").Return(nil, storage.ObjectInfo{}, storage.ErrObjectNotFound)
		f.images.On("Get", mock.Anything, "signatures/default.png").
			Return(io.NopCloser(bytes.NewReader(png)), storage.ObjectInfo{}, nil)
		f.signer.On("Sign", mock.Anything, mock.Anything, signerName, "", mock.MatchedBy(func(s signing.Spec) bool {
			return bytes.Equal(s.Appearance.Image, png)
		})).Return([]byte("signed"), nil)
		f.eng.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("engine-2", nil)
		f.repo.On("Create", mock.Anything, mock.Anything).Return(&model.Document{ID: "doc-2"}, nil)

		_, err := f.svc.Sign(context.Background(), ownerUser, "doc-1", SignRequest{SignerName: signerName, Spec: visible, UseCustomImage: true})

		require.NoError(t, err)
		f.assertExpectations(t)
	})

	t.Run("missing image signs without one", func(t *testing.T) {
		f := newSignFixture(true)
		f.expectFetch()
		f.images.On("Get", mock.Anything, mock.Anything).Return(nil, storage.ObjectInfo{}, storage.ErrObjectNotFound)
		f.signer.On("Sign", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.MatchedBy(func(s signing.Spec) bool {
			return s.Appearance.Image == nil
		})).Return([]byte("signed"), nil)
		f.eng.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("engine-2", nil)
		f.repo.On("Create", mock.Anything, mock.Anything).Return(&model.Document{ID: "doc-2"}, nil)

		_, err := f.svc.Sign(context.Background(), ownerUser, "doc-1", SignRequest{SignerName: signerName, Spec: visible, UseCustomImage: true})

		require.NoError(t, err)
		f.images.AssertNumberOfCalls(t, "Get", 2)
	})

	t.Run("storage disabled", func(t *testing.T) {
		f := newSignFixture(false)
		f.expectFetch()
		f.signer.On("Sign", mock.Anything, mock.Anything, mock.Anything, mock.Anything, visible).Return([]byte("signed"), nil)
		f.eng.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("engine-2", nil)
		f.repo.On("Create", mock.Anything, mock.Anything).Return(&model.Document{ID: "doc-2"}, nil)

		_, err := f.svc.Sign(context.Background(), ownerUser, "doc-1", SignRequest{SignerName: signerName, Spec: visible, UseCustomImage: true})

		require.NoError(t, err)
	})
}
