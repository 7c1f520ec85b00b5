package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// FileService is a ledger backend over a local JSON export. Reads come
// from the export file; updates are accumulated and flushed to the output
// path, so a commit run works without network access.
type FileService struct {
	mu           sync.Mutex
	transactions []*Transaction
	outputPath   string
}

var _ Service = (*FileService)(nil)

// NewFileService loads the transaction export at path. Updates are written
// to outputPath on Flush; an empty outputPath makes updates in-memory only.
func NewFileService(path, outputPath string) (*FileService, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ledger export: %w", err)
	}

	var transactions []*Transaction
	if err := json.Unmarshal(data, &transactions); err != nil {
		return nil, fmt.Errorf("decoding ledger export %s: %w", path, err)
	}

	return &FileService{
		transactions: transactions,
		outputPath:   outputPath,
	}, nil
}

// GetTransactions returns entries whose date falls within the range.
func (s *FileService) GetTransactions(_ context.Context, r DateRange) ([]*Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Transaction
	for _, t := range s.transactions {
		if r.Contains(t.Date) {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

// UpdateTransaction replaces the stored entry matching old.ID.
func (s *FileService) UpdateTransaction(_ context.Context, old, new *Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.transactions {
		if t.ID == old.ID {
			s.transactions[i] = new.Clone()
			return nil
		}
	}
	return fmt.Errorf("transaction %s not found in ledger export", old.ID)
}

// Flush writes the current transaction set to the output path.
func (s *FileService) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.outputPath == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.transactions, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.outputPath, data, 0o644)
}
