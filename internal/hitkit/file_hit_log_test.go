package hitkit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func newTestFileHitLog(t *testing.T) *FileHitLog {
	t.Helper()
	hitLog, buildErr := NewFileHitLog(t.TempDir(), zap.NewNop())
	if buildErr != nil {
		t.Fatalf("unexpected error building file hit log: %v", buildErr)
	}
	return hitLog
}

func TestFileHitLogNextCountMissingResource(t *testing.T) {
	t.Parallel()

	hitLog := newTestFileHitLog(t)
	count, countErr := hitLog.NextCount(context.Background(), "project_badge")
	if countErr != nil {
		t.Fatalf("unexpected error: %v", countErr)
	}
	if count != 1 {
		t.Fatalf("expected 1 for missing resource, got %d", count)
	}
}

func TestFileHitLogAppendThenNextCount(t *testing.T) {
	t.Parallel()

	hitLog := newTestFileHitLog(t)
	record := HitRecord{
		TimestampMillis: 1700000000123,
		ResourcePath:    "project/badge.svg",
		Fingerprint:     "a1b2c3d4e5",
		Count:           1,
	}
	if appendErr := hitLog.Append(context.Background(), "project_badge", record); appendErr != nil {
		t.Fatalf("unexpected append error: %v", appendErr)
	}

	count, countErr := hitLog.NextCount(context.Background(), "project_badge")
	if countErr != nil {
		t.Fatalf("unexpected error: %v", countErr)
	}
	if count != 2 {
		t.Fatalf("expected 2 after one record, got %d", count)
	}

	content, readErr := os.ReadFile(filepath.Join(hitLog.directory, "project_badge.log"))
	if readErr != nil {
		t.Fatalf("unexpected read error: %v", readErr)
	}
	if string(content) != "1700000000123|project/badge.svg|a1b2c3d4e5|1\n" {
		t.Fatalf("unexpected log content: %q", string(content))
	}
}

func TestFileHitLogNextCountUsesLastLine(t *testing.T) {
	t.Parallel()

	hitLog := newTestFileHitLog(t)
	lines := strings.Join([]string{
		"1700000000100|project/badge.svg|a1b2c3d4e5|1",
		"1700000000200|project/badge.svg|a1b2c3d4e5|2",
		"1699999999999|project/badge.svg|ffffffffff|3",
	}, "\n") + "\n"
	if writeErr := os.WriteFile(filepath.Join(hitLog.directory, "project_badge.log"), []byte(lines), 0o644); writeErr != nil {
		t.Fatalf("unexpected write error: %v", writeErr)
	}

	// The last physical line wins even though its timestamp went backward.
	count, countErr := hitLog.NextCount(context.Background(), "project_badge")
	if countErr != nil {
		t.Fatalf("unexpected error: %v", countErr)
	}
	if count != 4 {
		t.Fatalf("expected 4, got %d", count)
	}
}

func TestFileHitLogNextCountEmptyFile(t *testing.T) {
	t.Parallel()

	hitLog := newTestFileHitLog(t)
	if writeErr := os.WriteFile(filepath.Join(hitLog.directory, "project_badge.log"), nil, 0o644); writeErr != nil {
		t.Fatalf("unexpected write error: %v", writeErr)
	}

	count, countErr := hitLog.NextCount(context.Background(), "project_badge")
	if countErr != nil {
		t.Fatalf("unexpected error for empty log: %v", countErr)
	}
	if count != 1 {
		t.Fatalf("expected 1 for empty log, got %d", count)
	}
}

func TestFileHitLogNextCountCorruptedLastLine(t *testing.T) {
	t.Parallel()

	hitLog := newTestFileHitLog(t)
	lines := "1700000000100|project/badge.svg|a1b2c3d4e5|1\ngarbage-without-fields\n"
	if writeErr := os.WriteFile(filepath.Join(hitLog.directory, "project_badge.log"), []byte(lines), 0o644); writeErr != nil {
		t.Fatalf("unexpected write error: %v", writeErr)
	}

	_, countErr := hitLog.NextCount(context.Background(), "project_badge")
	if !errors.Is(countErr, ErrCorruptedLog) {
		t.Fatalf("expected ErrCorruptedLog, got %v", countErr)
	}
}

func TestFileHitLogAppendIsAppendOnly(t *testing.T) {
	t.Parallel()

	hitLog := newTestFileHitLog(t)
	for countValue := int64(1); countValue <= 3; countValue++ {
		record := HitRecord{
			TimestampMillis: 1700000000000 + countValue,
			ResourcePath:    "project/badge.svg",
			Fingerprint:     "a1b2c3d4e5",
			Count:           countValue,
		}
		if appendErr := hitLog.Append(context.Background(), "project_badge", record); appendErr != nil {
			t.Fatalf("unexpected append error: %v", appendErr)
		}
	}

	content, readErr := os.ReadFile(filepath.Join(hitLog.directory, "project_badge.log"))
	if readErr != nil {
		t.Fatalf("unexpected read error: %v", readErr)
	}
	recordLines := strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
	if len(recordLines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(recordLines))
	}
	for index, line := range recordLines {
		record, parseErr := parseHitRecord(line)
		if parseErr != nil {
			t.Fatalf("line %d failed to parse: %v", index, parseErr)
		}
		if record.Count != int64(index)+1 {
			t.Fatalf("expected count %d at line %d, got %d", index+1, index, record.Count)
		}
	}
}

func TestNewFileHitLogCreatesDirectory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	nested := filepath.Join(root, "data", "hits")
	if _, buildErr := NewFileHitLog(nested, nil); buildErr != nil {
		t.Fatalf("unexpected error: %v", buildErr)
	}
	info, statErr := os.Stat(nested)
	if statErr != nil || !info.IsDir() {
		t.Fatalf("expected directory to be created, stat err %v", statErr)
	}
}
