package hitkit

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	recordDelimiter   = "|"
	recordFieldCount  = 4
	maxRecordLineSize = 1 << 20

	// recordReservedCharacters never appear in recorded resource paths.
	// Segment cleaning strips them before a record is formatted.
	recordReservedCharacters = recordDelimiter + "\n\r"
)

// HitRecord is one line of a resource's append-only log.
type HitRecord struct {
	TimestampMillis int64
	ResourcePath    string
	Fingerprint     string
	Count           int64
}

// formatHitRecord renders the newline-terminated wire form
// "<timestampMillis>|<resourcePath>|<fingerprint>|<count>\n". Fields are not
// escaped; segment cleaning already strips the reserved characters from the
// resource path before it reaches this point.
func formatHitRecord(record HitRecord) string {
	return strconv.FormatInt(record.TimestampMillis, 10) + recordDelimiter +
		record.ResourcePath + recordDelimiter +
		record.Fingerprint + recordDelimiter +
		strconv.FormatInt(record.Count, 10) + "\n"
}

// parseHitRecord parses one log line. A wrong field count or a non-numeric
// timestamp or count wraps ErrCorruptedLog; callers decide recovery policy.
func parseHitRecord(line string) (HitRecord, error) {
	fields := strings.Split(line, recordDelimiter)
	if len(fields) != recordFieldCount {
		return HitRecord{}, fmt.Errorf("%w: expected %d fields, found %d", ErrCorruptedLog, recordFieldCount, len(fields))
	}

	timestampMillis, timestampErr := strconv.ParseInt(fields[0], 10, 64)
	if timestampErr != nil {
		return HitRecord{}, fmt.Errorf("%w: timestamp %q is not numeric", ErrCorruptedLog, fields[0])
	}

	count, countErr := strconv.ParseInt(fields[3], 10, 64)
	if countErr != nil {
		return HitRecord{}, fmt.Errorf("%w: count %q is not numeric", ErrCorruptedLog, fields[3])
	}

	return HitRecord{
		TimestampMillis: timestampMillis,
		ResourcePath:    fields[1],
		Fingerprint:     fields[2],
		Count:           count,
	}, nil
}
