package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"hot-claimer/internal/features/claim"
	logging "hot-claimer/internal/infra/log"

	"go.uber.org/zap"
)

const (
	// DefaultHistoryFile is where claim attempts are journaled
	DefaultHistoryFile = "data_out/claims.json"
	// DefaultMaxEntries caps the journal, oldest entries are dropped first
	DefaultMaxEntries = 1000
)

// ClaimRecord is one journaled claim attempt
type ClaimRecord struct {
	Timestamp     string `json:"timestamp"` // RFC3339
	AccountID     string `json:"account_id"`
	Success       bool   `json:"success"`
	TxHash        string `json:"tx_hash,omitempty"`
	UserAmount    string `json:"user_amount,omitempty"`
	VillageAmount string `json:"village_amount,omitempty"`
	TotalBalance  string `json:"total_balance,omitempty"`
	Error         string `json:"error,omitempty"`
}

// ClaimHistory is file structure for claims.json
type ClaimHistory struct {
	Entries []ClaimRecord `json:"entries"`
}

// HistoryStore appends claim records to a JSON file
type HistoryStore struct {
	path       string
	maxEntries int
	now        func() time.Time
	mu         sync.Mutex
}

func NewHistoryStore(path string, maxEntries int) *HistoryStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &HistoryStore{path: path, maxEntries: maxEntries, now: time.Now}
}

func (s *HistoryStore) Path() string {
	return s.path
}

// Load returns the journal; a missing file is an empty journal
func (s *HistoryStore) Load() (*ClaimHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *HistoryStore) load() (*ClaimHistory, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &ClaimHistory{Entries: []ClaimRecord{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read claim history file: %w", err)
	}
	if len(data) == 0 {
		return &ClaimHistory{Entries: []ClaimRecord{}}, nil
	}

	var history ClaimHistory
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("failed to parse claim history JSON: %w", err)
	}
	if history.Entries == nil {
		history.Entries = []ClaimRecord{}
	}
	return &history, nil
}

// Append records one claim result
func (s *HistoryStore) Append(r claim.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	history, err := s.load()
	if err != nil {
		// a corrupt journal is replaced rather than blocking new records
		logging.LogWarn("Claim history unreadable, starting a new one", zap.String("file", s.path), zap.Error(err))
		history = &ClaimHistory{Entries: []ClaimRecord{}}
	}

	history.Entries = append(history.Entries, recordFor(r, s.now()))
	if extra := len(history.Entries) - s.maxEntries; extra > 0 {
		history.Entries = history.Entries[extra:]
	}

	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal claim history JSON: %w", err)
	}

	tempFilePath := s.path + ".tmp"
	if err := os.WriteFile(tempFilePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary claim history file: %w", err)
	}
	if err := os.Rename(tempFilePath, s.path); err != nil {
		_ = os.Remove(tempFilePath)
		return fmt.Errorf("failed to rename temporary file to claim history file: %w", err)
	}
	return nil
}

// Notify journals the result; write errors are logged only
func (s *HistoryStore) Notify(ctx context.Context, r claim.Result) {
	if err := s.Append(r); err != nil {
		logging.LogWarn("Failed to record claim history", zap.String("account", r.AccountID), zap.Error(err))
	}
}

// Last returns up to n most recent records, newest last
func (s *HistoryStore) Last(n int) ([]ClaimRecord, error) {
	history, err := s.Load()
	if err != nil {
		return nil, err
	}
	if n > 0 && len(history.Entries) > n {
		return history.Entries[len(history.Entries)-n:], nil
	}
	return history.Entries, nil
}

func recordFor(r claim.Result, at time.Time) ClaimRecord {
	rec := ClaimRecord{
		Timestamp:    at.Format(time.RFC3339),
		AccountID:    r.AccountID,
		Success:      r.Success,
		TxHash:       r.TransactionHash,
		TotalBalance: r.TotalBalance,
		Error:        r.Error,
	}
	if r.Success {
		rec.UserAmount = r.UserAmount()
		rec.VillageAmount = r.VillageAmount()
	}
	return rec
}
