package hitkit

import (
	"reflect"
	"testing"
)

func TestSplitResourcePath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		wildcard string
		expected []string
	}{
		{"/project/badge.svg", []string{"project", "badge.svg"}},
		{"project/badge.svg", []string{"project", "badge.svg"}},
		{"//project//badge.svg/", []string{"project", "badge.svg"}},
		{"/../project/./badge.svg", []string{"project", "badge.svg"}},
		{"/pro|ject/bad|ge.svg", []string{"project", "badge.svg"}},
		{"/project/bad\nge.svg", []string{"project", "badge.svg"}},
		{"/|||/badge.svg", []string{"badge.svg"}},
		{"/", nil},
		{"", nil},
	}
	for _, testCase := range cases {
		segments := SplitResourcePath(testCase.wildcard)
		if !reflect.DeepEqual(segments, testCase.expected) {
			t.Fatalf("wildcard %q: expected %v, got %v", testCase.wildcard, testCase.expected, segments)
		}
	}
}

func TestResourceKeyFromSegments(t *testing.T) {
	t.Parallel()

	cases := []struct {
		segments []string
		expected string
	}{
		{[]string{"project", "badge.svg"}, "project_badge"},
		{[]string{"project", "badge"}, "project_badge"},
		{[]string{"owner", "repo", "badge.SVG"}, "owner_repo_badge"},
		{[]string{"badge.svg"}, "badge"},
		{[]string{"project", ".svg"}, "project"},
		{[]string{"project", "badge.png"}, "project_badge.png"},
	}
	for _, testCase := range cases {
		if key := ResourceKeyFromSegments(testCase.segments); key != testCase.expected {
			t.Fatalf("segments %v: expected key %q, got %q", testCase.segments, testCase.expected, key)
		}
	}
}

func TestResourcePathFromSegments(t *testing.T) {
	t.Parallel()

	if path := ResourcePathFromSegments([]string{"project", "badge.svg"}); path != "project/badge.svg" {
		t.Fatalf("expected logged path to keep the extension, got %q", path)
	}
}

func TestFeedPathFromSegments(t *testing.T) {
	t.Parallel()

	if path := FeedPathFromSegments([]string{"project", "badge.svg"}); path != "project/badge" {
		t.Fatalf("expected feed path without extension, got %q", path)
	}
	if path := FeedPathFromSegments([]string{"project", "status"}); path != "project/status" {
		t.Fatalf("expected unchanged feed path, got %q", path)
	}
}

func TestStripBadgeExtensionDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	segments := []string{"project", "badge.svg"}
	_ = ResourceKeyFromSegments(segments)
	if segments[1] != "badge.svg" {
		t.Fatalf("expected input segments untouched, got %v", segments)
	}
}
