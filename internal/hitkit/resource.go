package hitkit

import "strings"

// badgeExtension is the image extension stripped when deriving resource keys
// and feed paths. The logged resource path keeps it.
const badgeExtension = ".svg"

// SplitResourcePath turns a URL wildcard such as "/project/badge.svg" into
// clean path segments. Empty and dot segments are dropped so derived keys
// never contain traversal elements or doubled separators.
func SplitResourcePath(wildcard string) []string {
	return cleanedSegments(strings.Split(wildcard, "/"))
}

// ResourceKeyFromSegments derives the log file identifier for a badge path:
// segments joined by underscore with a trailing badge extension stripped,
// e.g. ["project", "badge.svg"] becomes "project_badge".
func ResourceKeyFromSegments(segments []string) string {
	return strings.Join(stripBadgeExtension(segments), "_")
}

// ResourcePathFromSegments renders the path field written to hit records:
// segments joined by slash with the extension kept.
func ResourcePathFromSegments(segments []string) string {
	return strings.Join(segments, "/")
}

// FeedPathFromSegments renders the path field of broadcast messages:
// segments joined by slash with a trailing badge extension stripped.
func FeedPathFromSegments(segments []string) string {
	return strings.Join(stripBadgeExtension(segments), "/")
}

// cleanedSegments drops empty and dot segments so callers passing raw URL
// splits cannot produce traversal elements or doubled separators in keys,
// and strips the characters the hit record format reserves.
func cleanedSegments(pathSegments []string) []string {
	var segments []string
	for _, segment := range pathSegments {
		segment = stripReservedCharacters(segment)
		if segment == "" || segment == "." || segment == ".." {
			continue
		}
		segments = append(segments, segment)
	}
	return segments
}

// stripReservedCharacters removes the record delimiter and line breaks from a
// segment. A path carrying them would split or reshape its own log lines.
func stripReservedCharacters(segment string) string {
	if !strings.ContainsAny(segment, recordReservedCharacters) {
		return segment
	}
	var builder strings.Builder
	builder.Grow(len(segment))
	for _, character := range segment {
		if strings.ContainsRune(recordReservedCharacters, character) {
			continue
		}
		builder.WriteRune(character)
	}
	return builder.String()
}

func stripBadgeExtension(segments []string) []string {
	if len(segments) == 0 {
		return segments
	}
	last := segments[len(segments)-1]
	if !strings.HasSuffix(strings.ToLower(last), badgeExtension) {
		return segments
	}
	stripped := last[:len(last)-len(badgeExtension)]
	trimmed := make([]string, len(segments))
	copy(trimmed, segments)
	if stripped == "" {
		return trimmed[:len(trimmed)-1]
	}
	trimmed[len(trimmed)-1] = stripped
	return trimmed
}
