package data

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hedgeai/marketdata/src/eventmodels"
)

const (
	tokenFilename    = "token.json"
	snapshotFilename = "snapshot.json"
)

type accessTokenDTO struct {
	AccessToken string `json:"access_token"`
}

// FileStore keeps the credential and snapshot as json files in one
// directory. Writes go through a temp file and rename so a crash mid-write
// never leaves a truncated file behind.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("NewFileStore: dir is empty")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("NewFileStore: failed to create %s: %w", dir, err)
	}

	return &FileStore{dir: dir}, nil
}

func (s *FileStore) writeFile(filename string, payload []byte, mode os.FileMode) error {
	tmp, err := os.CreateTemp(s.dir, filename+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(s.dir, filename)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

func (s *FileStore) SaveCredential(ctx context.Context, accessToken string) error {
	payload, err := json.Marshal(accessTokenDTO{AccessToken: accessToken})
	if err != nil {
		return fmt.Errorf("FileStore.SaveCredential: failed to marshal token: %w", err)
	}

	// The token is a live trading credential, keep it owner-only
	if err := s.writeFile(tokenFilename, payload, 0600); err != nil {
		return fmt.Errorf("FileStore.SaveCredential: %w", err)
	}

	return nil
}

func (s *FileStore) LoadCredential(ctx context.Context) (string, bool, error) {
	payload, err := os.ReadFile(filepath.Join(s.dir, tokenFilename))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("FileStore.LoadCredential: failed to read %s: %w", tokenFilename, err)
	}

	var dto accessTokenDTO
	if err := json.Unmarshal(payload, &dto); err != nil {
		return "", false, fmt.Errorf("FileStore.LoadCredential: failed to unmarshal %s: %w", tokenFilename, err)
	}

	if dto.AccessToken == "" {
		return "", false, nil
	}

	return dto.AccessToken, true, nil
}

func (s *FileStore) SaveSnapshot(ctx context.Context, snapshot *eventmodels.MarketSnapshotDTO) error {
	if snapshot == nil {
		return fmt.Errorf("FileStore.SaveSnapshot: snapshot is nil")
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("FileStore.SaveSnapshot: failed to marshal snapshot: %w", err)
	}

	if err := s.writeFile(snapshotFilename, payload, 0644); err != nil {
		return fmt.Errorf("FileStore.SaveSnapshot: %w", err)
	}

	return nil
}

func (s *FileStore) LoadSnapshot(ctx context.Context) (*eventmodels.MarketSnapshotDTO, bool, error) {
	payload, err := os.ReadFile(filepath.Join(s.dir, snapshotFilename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("FileStore.LoadSnapshot: failed to read %s: %w", snapshotFilename, err)
	}

	var dto eventmodels.MarketSnapshotDTO
	if err := json.Unmarshal(payload, &dto); err != nil {
		return nil, false, fmt.Errorf("FileStore.LoadSnapshot: failed to unmarshal %s: %w", snapshotFilename, err)
	}

	return &dto, true, nil
}
