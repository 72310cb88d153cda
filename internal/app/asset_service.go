package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ObjectStorage stores an object and returns the public URL it is served from.
type ObjectStorage interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

type AssetService struct {
	storage  ObjectStorage
	maxBytes int64
}

type UploadInput struct {
	UserID   string
	Filename string
	Body     io.Reader
}

type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// NewAssetService returns a service whose uploads fail with ErrAssetsDisabled
// when storage is nil.
func NewAssetService(storage ObjectStorage, maxBytes int64) *AssetService {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return &AssetService{storage: storage, maxBytes: maxBytes}
}

func (s *AssetService) Enabled() bool {
	return s.storage != nil
}

// UploadSessionFile stores a session JSON document under the caller's prefix.
func (s *AssetService) UploadSessionFile(ctx context.Context, input UploadInput) (*UploadResult, error) {
	if input.UserID == "" || input.Body == nil {
		return nil, ErrInvalidInput
	}
	if s.storage == nil {
		return nil, ErrAssetsDisabled
	}

	verr := &ValidationError{}
	if !strings.EqualFold(path.Ext(input.Filename), ".json") {
		verr.Add("file", "File must have a .json extension")
		return nil, verr
	}

	payload, err := io.ReadAll(io.LimitReader(input.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload failed: %w", err)
	}
	switch {
	case len(payload) == 0:
		verr.Add("file", "File is empty")
	case int64(len(payload)) > s.maxBytes:
		verr.Add("file", fmt.Sprintf("File must be at most %d bytes", s.maxBytes))
	case !json.Valid(payload):
		verr.Add("file", "File must contain valid JSON")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("sessions/%s/%s.json", input.UserID, uuid.NewString())
	url, err := s.storage.Put(ctx, key, "application/json", bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return nil, err
	}
	return &UploadResult{URL: url, Key: key}, nil
}
