package usecase

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/talentloop/ai-interviewer/internal/domain"
)

// UploadService handles CV intake: text extraction, original-file storage,
// and creation of the candidate with its pending interview.
type UploadService struct {
	Candidates domain.CandidateRepository
	Jobs       domain.JobRepository
	Extractor  domain.TextExtractor
	Files      domain.FileStore
}

// NewUploadService constructs an UploadService with its dependencies.
func NewUploadService(cand domain.CandidateRepository, jobs domain.JobRepository, ex domain.TextExtractor, fs domain.FileStore) UploadService {
	return UploadService{Candidates: cand, Jobs: jobs, Extractor: ex, Files: fs}
}

// UploadResult is what the intake flow hands back to the client.
type UploadResult struct {
	Candidate   domain.Candidate
	Interview   domain.Interview
	AccessToken string
}

// Upload ingests a CV and creates the candidate. The access token is
// generated here and returned exactly once; afterwards only its stored
// copy exists.
func (s UploadService) Upload(ctx context.Context, name, email, filename string, data []byte, jobID *int64) (UploadResult, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return UploadResult{}, fmt.Errorf("%w: name and email required", domain.ErrInvalidArgument)
	}
	if len(data) == 0 {
		return UploadResult{}, fmt.Errorf("%w: empty file", domain.ErrInvalidArgument)
	}

	if jobID != nil {
		job, err := s.Jobs.Get(ctx, *jobID)
		if err != nil {
			return UploadResult{}, fmt.Errorf("op=upload.Upload: %w", err)
		}
		if job.Status != domain.JobOpen {
			return UploadResult{}, fmt.Errorf("%w: job %d is not open", domain.ErrInvalidArgument, *jobID)
		}
	}

	cvText, err := s.Extractor.Extract(ctx, filename, data)
	if err != nil {
		return UploadResult{}, fmt.Errorf("op=upload.Upload: %w", err)
	}

	key, err := s.Files.Save(ctx, filename, bytes.NewReader(data))
	if err != nil {
		return UploadResult{}, fmt.Errorf("op=upload.Upload: %w", err)
	}

	token, err := newAccessToken()
	if err != nil {
		return UploadResult{}, fmt.Errorf("op=upload.Upload: %w", err)
	}

	cand, iv, err := s.Candidates.CreateWithInterview(ctx, domain.Candidate{
		Name:        name,
		Email:       email,
		CVText:      cvText,
		CVFileName:  filename,
		CVFileKey:   key,
		AccessToken: token,
		JobID:       jobID,
	})
	if err != nil {
		return UploadResult{}, fmt.Errorf("op=upload.Upload: %w", err)
	}
	return UploadResult{Candidate: cand, Interview: iv, AccessToken: token}, nil
}

func newAccessToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
