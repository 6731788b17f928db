package services

import (
	"fmt"
	"strings"

	"github.com/Ananth-NQI/orderbot-backend/internal/models"
)

// ParsedDraft is the partial set of fields recognized in extractor output.
// A field mapped to models.Unset was present but carried the placeholder.
type ParsedDraft struct {
	Values map[models.Field]string
}

// Lookup returns the parsed candidate for a field
func (p ParsedDraft) Lookup(f models.Field) (string, bool) {
	v, ok := p.Values[f]
	return v, ok
}

// Recognized is the number of distinct fields found in the output
func (p ParsedDraft) Recognized() int {
	return len(p.Values)
}

// Reconciler turns extractor text into draft updates.
// Fields only ever gain or change values here; clearing a field takes a session reset.
type Reconciler struct {
	messages *Messages
	byLabel  map[string]models.Field
}

// NewReconciler builds a parser for the catalog's field labels
func NewReconciler(messages *Messages) *Reconciler {
	byLabel := make(map[string]models.Field, len(models.Fields))
	for _, f := range models.Fields {
		byLabel[strings.ToLower(strings.TrimSpace(messages.Label(f)))] = f
	}
	return &Reconciler{messages: messages, byLabel: byLabel}
}

// Parse reads "*<Label>: <value>" lines. Anything else is ignored; the last
// occurrence of a label wins.
func (r *Reconciler) Parse(output string) ParsedDraft {
	parsed := ParsedDraft{Values: make(map[models.Field]string)}
	for _, line := range strings.Split(output, "\n") {
		field, value, ok := r.parseLine(line)
		if !ok {
			continue
		}
		parsed.Values[field] = value
	}
	return parsed
}

func (r *Reconciler) parseLine(line string) (models.Field, string, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "*") {
		return 0, "", false
	}

	label, value, found := strings.Cut(line[1:], ":")
	if !found {
		return 0, "", false
	}
	field, ok := r.byLabel[strings.ToLower(strings.Trim(label, " \t*"))]
	if !ok {
		return 0, "", false
	}

	// summary style "*Label:* value"
	value = strings.TrimPrefix(value, "*")
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, strings.TrimSpace(r.messages.Unset)) {
		value = models.Unset
	}
	return field, value, true
}

// Merge applies extractor output to the current draft: a field is overwritten
// only when the output carries a real value for it
func (r *Reconciler) Merge(current models.OrderDraft, output string) models.OrderDraft {
	return r.Apply(current, r.Parse(output))
}

// Apply merges an already parsed result
func (r *Reconciler) Apply(current models.OrderDraft, parsed ParsedDraft) models.OrderDraft {
	merged := current
	for _, f := range models.Fields {
		candidate, ok := parsed.Lookup(f)
		if !ok || candidate == models.Unset {
			continue
		}
		merged = merged.With(f, candidate)
	}
	return merged
}

// Render writes the draft in the extractor's line format ("*Label: value")
func (r *Reconciler) Render(d models.OrderDraft) string {
	lines := make([]string, 0, len(models.Fields))
	for _, f := range models.Fields {
		lines = append(lines, fmt.Sprintf("*%s: %s", r.label(f), r.display(d, f)))
	}
	return strings.Join(lines, "\n")
}

// RenderSummary writes the draft for the customer ("*Label:* value")
func (r *Reconciler) RenderSummary(d models.OrderDraft) string {
	lines := make([]string, 0, len(models.Fields))
	for _, f := range models.Fields {
		lines = append(lines, fmt.Sprintf("*%s:* %s", r.label(f), r.display(d, f)))
	}
	return strings.Join(lines, "\n")
}

// RenderTemplate shows the extractor the exact shape of the expected answer
func (r *Reconciler) RenderTemplate() string {
	lines := make([]string, 0, len(models.Fields))
	for _, f := range models.Fields {
		lines = append(lines, fmt.Sprintf("*%s: [%s]", r.label(f), r.label(f)))
	}
	return strings.Join(lines, "\n")
}

func (r *Reconciler) label(f models.Field) string {
	return strings.TrimSpace(r.messages.Label(f))
}

func (r *Reconciler) display(d models.OrderDraft, f models.Field) string {
	if !d.IsSet(f) {
		return r.messages.Unset
	}
	return d.Get(f)
}
