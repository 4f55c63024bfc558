package usecase_test

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentloop/ai-interviewer/internal/domain"
	"github.com/talentloop/ai-interviewer/internal/usecase"
)

type memCandidates struct {
	mu     sync.Mutex
	nextID int64
	rows   []domain.Candidate
}

func (m *memCandidates) CreateWithInterview(_ context.Context, c domain.Candidate) (domain.Candidate, domain.Interview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = m.nextID
	m.rows = append(m.rows, c)
	return c, domain.Interview{ID: m.nextID, CandidateID: c.ID, Status: domain.InterviewPending}, nil
}

func (m *memCandidates) Get(_ context.Context, id int64) (domain.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.rows {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Candidate{}, domain.ErrNotFound
}

func (m *memCandidates) ListOverviews(context.Context) ([]domain.CandidateOverview, error) {
	return nil, nil
}

type fakeExtractor struct {
	fn func(filename string, data []byte) (string, error)
}

func (f *fakeExtractor) Extract(_ context.Context, filename string, data []byte) (string, error) {
	return f.fn(filename, data)
}

type fakeFiles struct {
	saved map[string][]byte
}

func (f *fakeFiles) Save(_ context.Context, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if f.saved == nil {
		f.saved = make(map[string][]byte)
	}
	key := "key-" + filename
	f.saved[key] = data
	return key, nil
}

func (f *fakeFiles) Open(_ context.Context, key string) (io.ReadCloser, error) {
	return nil, domain.ErrNotFound
}

func passthroughExtractor() *fakeExtractor {
	return &fakeExtractor{fn: func(_ string, data []byte) (string, error) {
		return string(data), nil
	}}
}

func TestUpload(t *testing.T) {
	t.Parallel()
	cands := &memCandidates{}
	files := &fakeFiles{}
	svc := usecase.NewUploadService(cands, &fakeJobs{}, passthroughExtractor(), files)

	res, err := svc.Upload(context.Background(), " Jane Doe ", "jane@example.com", "cv.pdf", []byte("Go developer"), nil)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", res.Candidate.Name)
	assert.Equal(t, "Go developer", res.Candidate.CVText)
	assert.Equal(t, "key-cv.pdf", res.Candidate.CVFileKey)
	assert.Equal(t, domain.InterviewPending, res.Interview.Status)
	assert.Len(t, res.AccessToken, 64)
	assert.Equal(t, res.AccessToken, res.Candidate.AccessToken)
}

func TestUpload_TokensAreUnique(t *testing.T) {
	t.Parallel()
	svc := usecase.NewUploadService(&memCandidates{}, &fakeJobs{}, passthroughExtractor(), &fakeFiles{})

	r1, err := svc.Upload(context.Background(), "a", "a@x.com", "a.txt", []byte("cv"), nil)
	require.NoError(t, err)
	r2, err := svc.Upload(context.Background(), "b", "b@x.com", "b.txt", []byte("cv"), nil)
	require.NoError(t, err)
	assert.NotEqual(t, r1.AccessToken, r2.AccessToken)
}

func TestUpload_Validation(t *testing.T) {
	t.Parallel()
	svc := usecase.NewUploadService(&memCandidates{}, &fakeJobs{}, passthroughExtractor(), &fakeFiles{})
	ctx := context.Background()

	_, err := svc.Upload(ctx, "", "a@x.com", "cv.pdf", []byte("x"), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = svc.Upload(ctx, "Jane", "  ", "cv.pdf", []byte("x"), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = svc.Upload(ctx, "Jane", "a@x.com", "cv.pdf", nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestUpload_JobChecks(t *testing.T) {
	t.Parallel()
	jobs := &fakeJobs{jobs: map[int64]domain.Job{
		1: {ID: 1, Title: "Backend", Status: domain.JobOpen},
		2: {ID: 2, Title: "Closed", Status: domain.JobClosed},
	}}
	svc := usecase.NewUploadService(&memCandidates{}, jobs, passthroughExtractor(), &fakeFiles{})
	ctx := context.Background()

	open := int64(1)
	res, err := svc.Upload(ctx, "Jane", "a@x.com", "cv.pdf", []byte("x"), &open)
	require.NoError(t, err)
	require.NotNil(t, res.Candidate.JobID)
	assert.Equal(t, int64(1), *res.Candidate.JobID)

	closed := int64(2)
	_, err = svc.Upload(ctx, "Jane", "a@x.com", "cv.pdf", []byte("x"), &closed)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	missing := int64(99)
	_, err = svc.Upload(ctx, "Jane", "a@x.com", "cv.pdf", []byte("x"), &missing)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpload_ExtractorFailure(t *testing.T) {
	t.Parallel()
	ex := &fakeExtractor{fn: func(string, []byte) (string, error) {
		return "", domain.ErrInvalidArgument
	}}
	svc := usecase.NewUploadService(&memCandidates{}, &fakeJobs{}, ex, &fakeFiles{})

	_, err := svc.Upload(context.Background(), "Jane", "a@x.com", "cv.pdf", []byte("x"), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
