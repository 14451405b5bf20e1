package services

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ImageStorageService persists uploaded scan images so a card's fingerprint
// can be recomputed later without re-photographing it.
type ImageStorageService struct {
	storageDir string
}

// NewImageStorageService creates the storage directory if needed.
func NewImageStorageService(storageDir string) *ImageStorageService {
	if storageDir == "" {
		storageDir = "./data/scans"
	}

	if err := os.MkdirAll(storageDir, 0755); err != nil {
		// Writes will surface the real error; keep startup going.
		fmt.Printf("Warning: could not create scan storage directory: %v\n", err)
	}

	return &ImageStorageService{
		storageDir: storageDir,
	}
}

// SaveScan writes the raw image bytes under a fresh unique filename and
// returns that filename.
func (s *ImageStorageService) SaveScan(imageData []byte) (string, error) {
	if len(imageData) == 0 {
		return "", fmt.Errorf("empty image data")
	}

	filename := uuid.New().String() + ".jpg"
	filePath := filepath.Join(s.storageDir, filename)

	if err := os.WriteFile(filePath, imageData, 0644); err != nil {
		return "", fmt.Errorf("failed to save scan image: %w", err)
	}

	return filename, nil
}

// GetStorageDir returns the storage directory path
func (s *ImageStorageService) GetStorageDir() string {
	return s.storageDir
}
