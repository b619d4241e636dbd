package upload

import (
	"context"
	"fmt"
	"path"

	"github.com/google/uuid"
)

// Service coordinates file records with presigned blob-store URLs.
type Service struct {
	repo   Repository
	signer Signer
}

// NewService creates a new upload Service.
func NewService(repo Repository, signer Signer) *Service {
	return &Service{repo: repo, signer: signer}
}

// UploadGrant is a presigned PUT URL plus the record it will fill.
type UploadGrant struct {
	File File
	URL  string
}

// RequestUpload creates a file record and returns a presigned PUT URL the
// client uploads directly to. The object key is content-addressed under the
// project prefix so names never collide. Contract uploads must be PDF; the
// admin-only gate on them sits at the route layer.
func (s *Service) RequestUpload(ctx context.Context, projectID, uploaderID uuid.UUID, name, contentType string, size int64, kind string) (*UploadGrant, error) {
	if kind == "" {
		kind = KindGeneral
	}
	if !ValidKind(kind) {
		return nil, ErrInvalidKind
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if kind == KindContract && contentType != "application/pdf" {
		return nil, ErrContractNotPDF
	}

	key := fmt.Sprintf("projects/%s/%s%s", projectID, uuid.New(), path.Ext(name))

	f := &File{
		ProjectID:   projectID,
		UploaderID:  uploaderID,
		Name:        name,
		S3Key:       key,
		ContentType: contentType,
		Size:        size,
		Kind:        kind,
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return nil, err
	}

	url, err := s.signer.UploadURL(ctx, key, contentType)
	if err != nil {
		return nil, err
	}

	return &UploadGrant{File: *f, URL: url}, nil
}

// DownloadURL returns a presigned GET URL for a stored file. The file must
// belong to the given project; membership is checked by the caller.
func (s *Service) DownloadURL(ctx context.Context, projectID, fileID uuid.UUID) (string, error) {
	f, err := s.repo.GetByID(ctx, fileID)
	if err != nil {
		return "", err
	}
	if f.ProjectID != projectID {
		return "", ErrFileNotFound
	}

	return s.signer.DownloadURL(ctx, f.S3Key)
}

// List returns a project's file records. An empty kind lists everything.
func (s *Service) List(ctx context.Context, projectID uuid.UUID, kind string) ([]File, error) {
	return s.repo.ListByProject(ctx, projectID, kind)
}
