package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"liquidityDesk/internal/model"
)

// JsonlStorage appends activity records to a JSONL file. A later line for the same
// transaction supersedes the earlier one when the journal is loaded.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutActivity appends a batch of activity records as JSON lines.
func (s *JsonlStorage) PutActivity(_ context.Context, records []model.ActivityRecord) error {
	if len(records) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create journal dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal activity record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write activity record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush journal: %w", err)
	}

	return nil
}

// LoadActivity returns the latest state of each transaction on chainID, newest first.
// A limit of zero returns everything. A missing file is an empty journal.
func (s *JsonlStorage) LoadActivity(_ context.Context, chainID uint64, limit int) ([]model.ActivityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	index := make(map[string]int)
	var ordered []model.ActivityRecord

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var record model.ActivityRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, fmt.Errorf("journal line %d: %w", line, err)
		}
		if record.ChainID != chainID {
			continue
		}
		if i, ok := index[record.TxHash]; ok {
			if record.CreatedAt == "" {
				record.CreatedAt = ordered[i].CreatedAt
			}
			ordered[i] = record
			continue
		}
		index[record.TxHash] = len(ordered)
		ordered = append(ordered, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}

	out := make([]model.ActivityRecord, 0, len(ordered))
	for i := len(ordered) - 1; i >= 0; i-- {
		out = append(out, ordered[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
