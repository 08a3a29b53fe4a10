package web

import (
	"bytes"
	"errors"
	"html/template"
	"strconv"
	"strings"
	"unicode/utf8"

	webassets "github.com/tyemirov/hitbadge/web"
)

const (
	badgeTemplateName    = "badge-flat.svg.tmpl"
	badgeCharacterWidth  = 7
	badgeCellPadding     = 10
	unavailableCountText = "n/a"
)

// ErrEmptyBadgeLabel is returned when a badge is built with a blank label.
var ErrEmptyBadgeLabel = errors.New("web.badge.empty_label")

// FlatBadge renders the two-cell badge image with the label on the left and
// the running count on the right.
type FlatBadge struct {
	label    string
	template *template.Template
}

type badgeTemplateData struct {
	Label       string
	Value       string
	LabelWidth  int
	ValueWidth  int
	TotalWidth  int
	LabelCenter int
	ValueCenter int
}

// NewFlatBadge parses the embedded badge template for the given label.
func NewFlatBadge(label string) (*FlatBadge, error) {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return nil, ErrEmptyBadgeLabel
	}
	parsed, parseErr := template.ParseFS(webassets.FS, badgeTemplateName)
	if parseErr != nil {
		return nil, parseErr
	}
	return &FlatBadge{label: trimmed, template: parsed}, nil
}

// Render draws the badge for a recorded count.
func (badge *FlatBadge) Render(count int64) ([]byte, error) {
	return badge.render(strconv.FormatInt(count, 10))
}

// RenderUnavailable draws the fallback badge served when no count could be
// recorded.
func (badge *FlatBadge) RenderUnavailable() ([]byte, error) {
	return badge.render(unavailableCountText)
}

func (badge *FlatBadge) render(value string) ([]byte, error) {
	labelWidth := cellWidth(badge.label)
	valueWidth := cellWidth(value)
	data := badgeTemplateData{
		Label:       badge.label,
		Value:       value,
		LabelWidth:  labelWidth,
		ValueWidth:  valueWidth,
		TotalWidth:  labelWidth + valueWidth,
		LabelCenter: labelWidth / 2,
		ValueCenter: labelWidth + valueWidth/2,
	}

	var rendered bytes.Buffer
	if executeErr := badge.template.Execute(&rendered, data); executeErr != nil {
		return nil, executeErr
	}
	return rendered.Bytes(), nil
}

// cellWidth approximates the rendered text width in the badge font plus the
// cell padding on both sides.
func cellWidth(text string) int {
	return utf8.RuneCountInString(text)*badgeCharacterWidth + badgeCellPadding
}
