package supabase

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
	storage "github.com/supabase-community/storage-go"
)

// SignedURLTTL is how long issued video links stay valid. Assets are never
// served through permanent public URLs.
const SignedURLTTL = 3600

type StorageClient struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

func NewStorageClient(supabaseURL, serviceRoleKey, bucket string) (*StorageClient, error) {
	baseURL := supabaseURL
	if len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}
	client := storage.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil)

	return &StorageClient{
		client:  client,
		bucket:  bucket,
		baseURL: baseURL,
	}, nil
}

// VideoObjectPath is the deterministic storage key for a rendered video,
// namespaced by owner and keyed by the external job id.
func VideoObjectPath(userID uuid.UUID, openaiTaskID string) string {
	return fmt.Sprintf("users/%s/%s.mp4", userID.String(), openaiTaskID)
}

// UploadVideo stores a rendered asset and returns its storage path. Uploads
// never overwrite: a re-run check for an already materialized job fails here
// instead of clobbering the object.
func (s *StorageClient) UploadVideo(userID uuid.UUID, openaiTaskID string, data []byte) (string, error) {
	storagePath := VideoObjectPath(userID, openaiTaskID)

	contentType := "video/mp4"
	upsert := false
	_, err := s.client.UploadFile(s.bucket, storagePath, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload video: %w", err)
	}

	return storagePath, nil
}

// CreateSignedURL issues a time-boxed read link for a stored object.
func (s *StorageClient) CreateSignedURL(storagePath string, expiresIn int) (string, error) {
	resp, err := s.client.CreateSignedUrl(s.bucket, storagePath, expiresIn)
	if err != nil {
		return "", fmt.Errorf("failed to create signed url: %w", err)
	}
	return resp.SignedURL, nil
}

func (s *StorageClient) DeleteFile(storagePath string) error {
	_, err := s.client.RemoveFile(s.bucket, []string{storagePath})
	return err
}

func (s *StorageClient) DownloadFile(storagePath string) ([]byte, error) {
	data, err := s.client.DownloadFile(s.bucket, storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}

	return data, nil
}
