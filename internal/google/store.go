package google

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"

	"github.com/tmeadows/outboxd/internal/logging"
)

// ErrNoCredential indicates no persisted credential record exists. A
// corrupted record is reported the same way after the store removes it,
// so callers treat both cases as "authorize from scratch".
var ErrNoCredential = errors.New("no credential record found")

// Record is the persisted credential: the OAuth2 token plus the scopes it
// was granted for. Scopes travel with the token so a scope change in a
// later release invalidates old records instead of failing at send time.
type Record struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry"`
	Scopes       []string  `json:"scopes"`
}

// Token converts the record to an oauth2.Token.
func (r *Record) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  r.AccessToken,
		TokenType:    r.TokenType,
		RefreshToken: r.RefreshToken,
		Expiry:       r.Expiry,
	}
}

// NewRecord builds a record from a token and the scopes it was granted for.
func NewRecord(tok *oauth2.Token, scopes []string) *Record {
	return &Record{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
		Scopes:       scopes,
	}
}

// Store persists credential records as JSON files.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore creates a store persisting to path.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger}
}

// Path returns the file path the store persists to.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted record. A missing file returns ErrNoCredential.
// A file that cannot be parsed is removed and also returns ErrNoCredential:
// a corrupted record is unrecoverable and keeping it around would fail
// every subsequent start the same way.
func (s *Store) Load() (*Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoCredential
		}
		return nil, fmt.Errorf("failed to read credential record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.Warn("removing corrupted credential record",
			slog.String("path", s.path),
			logging.Err(err))
		if rmErr := os.Remove(s.path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to remove corrupted credential record: %w", rmErr)
		}
		return nil, ErrNoCredential
	}
	if rec.AccessToken == "" {
		s.logger.Warn("removing credential record without access token",
			slog.String("path", s.path))
		if rmErr := os.Remove(s.path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to remove invalid credential record: %w", rmErr)
		}
		return nil, ErrNoCredential
	}

	return &rec, nil
}

// Save writes the record atomically. The file is written next to the
// target and renamed into place so a crash mid-write never leaves a
// partial record behind.
func (s *Store) Save(rec *Record) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create credential directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credential record: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return fmt.Errorf("failed to create temp credential file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set credential file mode: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write credential record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close credential file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace credential record: %w", err)
	}

	return nil
}

// Delete removes the persisted record. Missing files are not an error.
func (s *Store) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete credential record: %w", err)
	}
	return nil
}
