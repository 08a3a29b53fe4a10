package hitkit

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// FileHitLog stores one append-only log file per resource key. Records are
// only ever added at the end; nothing here truncates, compacts, or rewrites
// a log.
type FileHitLog struct {
	directory string
	logger    *zap.Logger
}

// NewFileHitLog constructs a hit log rooted at directory, creating the
// directory when it does not exist. A nil logger is replaced with a no-op.
func NewFileHitLog(directory string, logger *zap.Logger) (*FileHitLog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mkdirErr := os.MkdirAll(directory, 0o755); mkdirErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, mkdirErr)
	}
	return &FileHitLog{directory: directory, logger: logger}, nil
}

// NextCount derives the upcoming count from the last record of the resource's
// log. A missing log means no hits yet and yields 1. The last record is the
// last physical line; timestamps play no part, so a clock going backward
// cannot disturb the sequence. A log that exists but holds no records also
// yields 1 with a warning, and an unparseable last line surfaces
// ErrCorruptedLog instead of a guessed count.
func (hitLog *FileHitLog) NextCount(ctx context.Context, resourceKey string) (int64, error) {
	file, openErr := os.Open(hitLog.logPath(resourceKey))
	if openErr != nil {
		if os.IsNotExist(openErr) {
			return 1, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrStorageUnavailable, openErr)
	}
	defer func() { _ = file.Close() }()

	lastLine := ""
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordLineSize)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lastLine = line
		}
	}
	if scanErr := scanner.Err(); scanErr != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorageUnavailable, scanErr)
	}

	if lastLine == "" {
		hitLog.logger.Warn("hit log exists but holds no records",
			zap.String("resource_key", resourceKey))
		return 1, nil
	}

	record, parseErr := parseHitRecord(lastLine)
	if parseErr != nil {
		return 0, parseErr
	}
	return record.Count + 1, nil
}

// Append writes exactly one record line and syncs it to stable storage before
// returning, so a subsequent NextCount on the same key observes the record.
func (hitLog *FileHitLog) Append(ctx context.Context, resourceKey string, record HitRecord) error {
	file, openErr := os.OpenFile(hitLog.logPath(resourceKey), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if openErr != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, openErr)
	}
	defer func() { _ = file.Close() }()

	if _, writeErr := file.WriteString(formatHitRecord(record)); writeErr != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, writeErr)
	}
	if syncErr := file.Sync(); syncErr != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, syncErr)
	}
	return nil
}

func (hitLog *FileHitLog) logPath(resourceKey string) string {
	return filepath.Join(hitLog.directory, resourceKey+".log")
}
