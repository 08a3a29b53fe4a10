package hitkit

import (
	"errors"
	"testing"
)

func TestFormatHitRecord(t *testing.T) {
	t.Parallel()

	line := formatHitRecord(HitRecord{
		TimestampMillis: 1700000000123,
		ResourcePath:    "project/badge.svg",
		Fingerprint:     "a1b2c3d4e5",
		Count:           7,
	})
	if line != "1700000000123|project/badge.svg|a1b2c3d4e5|7\n" {
		t.Fatalf("unexpected wire form: %q", line)
	}
}

func TestParseHitRecordRoundTrip(t *testing.T) {
	t.Parallel()

	original := HitRecord{
		TimestampMillis: 1700000000123,
		ResourcePath:    "project/badge.svg",
		Fingerprint:     "a1b2c3d4e5",
		Count:           42,
	}
	parsed, parseErr := parseHitRecord("1700000000123|project/badge.svg|a1b2c3d4e5|42")
	if parseErr != nil {
		t.Fatalf("unexpected parse error: %v", parseErr)
	}
	if parsed != original {
		t.Fatalf("expected %+v, got %+v", original, parsed)
	}
}

func TestParseHitRecordRejectsMalformedLines(t *testing.T) {
	t.Parallel()

	cases := []string{
		"1700000000123|project/badge.svg|a1b2c3d4e5",
		"1700000000123|project/badge.svg|a1b2c3d4e5|42|extra",
		"not-a-timestamp|project/badge.svg|a1b2c3d4e5|42",
		"1700000000123|project/badge.svg|a1b2c3d4e5|not-a-count",
		"",
	}
	for _, line := range cases {
		if _, parseErr := parseHitRecord(line); !errors.Is(parseErr, ErrCorruptedLog) {
			t.Fatalf("line %q: expected ErrCorruptedLog, got %v", line, parseErr)
		}
	}
}
