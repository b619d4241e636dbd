package upload_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agencykit/portal/internal/upload"
)

// fakeFileRepo is an in-memory files table.
type fakeFileRepo struct {
	files map[uuid.UUID]*upload.File
}

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{files: make(map[uuid.UUID]*upload.File)}
}

func (f *fakeFileRepo) Create(_ context.Context, file *upload.File) error {
	file.ID = uuid.New()
	stored := *file
	f.files[file.ID] = &stored
	return nil
}

func (f *fakeFileRepo) GetByID(_ context.Context, id uuid.UUID) (*upload.File, error) {
	file, ok := f.files[id]
	if !ok {
		return nil, upload.ErrFileNotFound
	}
	copied := *file
	return &copied, nil
}

func (f *fakeFileRepo) ListByProject(_ context.Context, projectID uuid.UUID, kind string) ([]upload.File, error) {
	out := []upload.File{}
	for _, file := range f.files {
		if file.ProjectID == projectID && (kind == "" || file.Kind == kind) {
			out = append(out, *file)
		}
	}
	return out, nil
}

// stubSigner hands back predictable URLs.
type stubSigner struct{}

func (stubSigner) UploadURL(_ context.Context, key, _ string) (string, error) {
	return "https://blobs.example/put/" + key, nil
}

func (stubSigner) DownloadURL(_ context.Context, key string) (string, error) {
	return "https://blobs.example/get/" + key, nil
}

func setupUploads(t *testing.T) (*upload.Service, *fakeFileRepo) {
	t.Helper()
	repo := newFakeFileRepo()
	return upload.NewService(repo, stubSigner{}), repo
}

func TestRequestUpload_DefaultsToGeneral(t *testing.T) {
	svc, _ := setupUploads(t)

	grant, err := svc.RequestUpload(context.Background(), uuid.New(), uuid.New(), "brief.pdf", "application/pdf", 1024, "")

	require.NoError(t, err)
	assert.Equal(t, upload.KindGeneral, grant.File.Kind)
	assert.Contains(t, grant.URL, grant.File.S3Key)
}

func TestRequestUpload_RejectsUnknownKind(t *testing.T) {
	svc, repo := setupUploads(t)

	_, err := svc.RequestUpload(context.Background(), uuid.New(), uuid.New(), "x.bin", "", 1, "invoice")

	assert.ErrorIs(t, err, upload.ErrInvalidKind)
	assert.Empty(t, repo.files)
}

func TestRequestUpload_ContractMustBePDF(t *testing.T) {
	svc, repo := setupUploads(t)

	_, err := svc.RequestUpload(context.Background(), uuid.New(), uuid.New(), "contract.docx",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document", 2048, upload.KindContract)

	assert.ErrorIs(t, err, upload.ErrContractNotPDF)
	assert.Empty(t, repo.files, "no record is created for a rejected contract")
}

func TestRequestUpload_ContractPDF(t *testing.T) {
	svc, _ := setupUploads(t)
	projectID := uuid.New()

	grant, err := svc.RequestUpload(context.Background(), projectID, uuid.New(), "msa.pdf", "application/pdf", 4096, upload.KindContract)

	require.NoError(t, err)
	assert.Equal(t, upload.KindContract, grant.File.Kind)
	assert.Equal(t, projectID, grant.File.ProjectID)
}

func TestList_FiltersByKind(t *testing.T) {
	svc, _ := setupUploads(t)
	projectID := uuid.New()
	uploader := uuid.New()

	_, err := svc.RequestUpload(context.Background(), projectID, uploader, "logo.png", "image/png", 100, upload.KindGeneral)
	require.NoError(t, err)
	_, err = svc.RequestUpload(context.Background(), projectID, uploader, "msa.pdf", "application/pdf", 200, upload.KindContract)
	require.NoError(t, err)

	contracts, err := svc.List(context.Background(), projectID, upload.KindContract)
	require.NoError(t, err)
	require.Len(t, contracts, 1)
	assert.Equal(t, "msa.pdf", contracts[0].Name)

	all, err := svc.List(context.Background(), projectID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDownloadURL_WrongProject(t *testing.T) {
	svc, _ := setupUploads(t)

	grant, err := svc.RequestUpload(context.Background(), uuid.New(), uuid.New(), "brief.pdf", "application/pdf", 1024, "")
	require.NoError(t, err)

	_, err = svc.DownloadURL(context.Background(), uuid.New(), grant.File.ID)
	assert.ErrorIs(t, err, upload.ErrFileNotFound)
}
