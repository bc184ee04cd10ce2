package notification

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// FileNotifier appends one line per record to a transaction log file and
// mirrors each record to the logger.
type FileNotifier struct {
	mu     sync.Mutex
	file   *os.File
	logger *slog.Logger
}

// OpenFileNotifier opens path for appending, creating the file if missing.
func OpenFileNotifier(path string, logger *slog.Logger) (*FileNotifier, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open transaction log: %w", err)
	}
	return &FileNotifier{file: f, logger: logger}, nil
}

// OnTransaction appends the record and syncs it to disk.
func (n *FileNotifier) OnTransaction(_ context.Context, record Record) error {
	line := record.Line()

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.file == nil {
		return fmt.Errorf("transaction log closed")
	}
	if _, err := n.file.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("write transaction log: %w", err)
	}
	if err := n.file.Sync(); err != nil {
		return fmt.Errorf("sync transaction log: %w", err)
	}
	if n.logger != nil {
		n.logger.Info("transaction recorded",
			slog.String("account_id", record.AccountID),
			slog.String("type", string(record.Kind)),
			slog.Float64("amount", record.Amount),
		)
	}
	return nil
}

// Close releases the underlying file. Further records fail.
func (n *FileNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.file == nil {
		return nil
	}
	err := n.file.Close()
	n.file = nil
	return err
}
