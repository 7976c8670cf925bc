package tokens

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const TOKEN_FILE = "./tokens.json"

// FileStore сохраняет учётные данные в JSON файле.
type FileStore struct {
	Path string
}

type fileToken struct {
	AccessToken     string `json:"accessToken"`
	RefreshToken    string `json:"refreshToken"`
	ExpiryTimestamp *int64 `json:"expiryTimestamp"`
}

func (store FileStore) tokenPath() string {
	if strings.TrimSpace(store.Path) == "" {
		return TOKEN_FILE
	}
	return store.Path
}

// Load загружает учётные данные из JSON файла.
func (store FileStore) Load() (Credentials, error) {
	path := store.tokenPath()
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("load credentials: read file: %w", err)
	}

	var payload fileToken
	if err := json.Unmarshal(data, &payload); err != nil {
		return Credentials{}, fmt.Errorf("load credentials: decode json: %w: %v", ErrMalformed, err)
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		return Credentials{}, fmt.Errorf("load credentials: %w: accessToken is empty", ErrMalformed)
	}

	creds := Credentials{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
	}
	if payload.ExpiryTimestamp != nil {
		expiry := time.UnixMilli(*payload.ExpiryTimestamp).UTC()
		creds.Expiry = &expiry
	}

	return creds, nil
}

// Save целиком перезаписывает JSON файл через временный файл и rename.
func (store FileStore) Save(creds Credentials) error {
	path := store.tokenPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("save credentials: create dir: %w", err)
	}

	payload := fileToken{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
	}
	if creds.Expiry != nil {
		ms := creds.Expiry.UnixMilli()
		payload.ExpiryTimestamp = &ms
	}

	data, err := json.MarshalIndent(payload, "", "    ")
	if err != nil {
		return fmt.Errorf("save credentials: encode json: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("save credentials: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("save credentials: write file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("save credentials: chmod file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save credentials: close file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("save credentials: rename file: %w", err)
	}

	return nil
}
