package services

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Ananth-NQI/orderbot-backend/internal/models"
)

//go:embed default_messages.yaml
var defaultMessagesYAML []byte

// FieldLabels are the labels shared by the extractor prompt, the parser and the replies
type FieldLabels struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
	Order   string `yaml:"order"`
	Payment string `yaml:"payment"`
}

// PromptTemplates holds the extractor prompt. Placeholders: {labels}, {unset},
// {draft}, {message}, {template}.
type PromptTemplates struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

// Messages is the catalog of every customer-facing text
type Messages struct {
	Unset              string          `yaml:"unset"`
	Labels             FieldLabels     `yaml:"labels"`
	FinalizeKeyword    string          `yaml:"finalize_keyword"`
	Greeting           []string        `yaml:"greeting"`
	Instructions       string          `yaml:"instructions"`
	UpdateHeader       string          `yaml:"update_header"`
	UpdateFooter       string          `yaml:"update_footer"`
	SummaryHeader      string          `yaml:"summary_header"`
	SummaryFooter      string          `yaml:"summary_footer"`
	FinalizedNotice    string          `yaml:"finalized_notice"`
	ApologyGeneric     string          `yaml:"apology_generic"`
	ApologyUnreachable string          `yaml:"apology_unreachable"`
	Prompt             PromptTemplates `yaml:"prompt"`
}

// DefaultMessages returns the built-in English catalog
func DefaultMessages() *Messages {
	var m Messages
	if err := yaml.Unmarshal(defaultMessagesYAML, &m); err != nil {
		panic(fmt.Sprintf("services: embedded message catalog is invalid: %v", err))
	}
	return &m
}

// LoadMessages reads a YAML catalog on top of the built-in one.
// Keys missing from the file keep their default text.
func LoadMessages(path string) (*Messages, error) {
	m := DefaultMessages()
	if strings.TrimSpace(path) == "" {
		return m, m.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read message catalog: %w", err)
	}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse message catalog %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("message catalog %s: %w", path, err)
	}
	return m, nil
}

// Validate checks the catalog can drive the conversation
func (m *Messages) Validate() error {
	if strings.TrimSpace(m.Unset) == "" {
		return errors.New("unset placeholder must not be empty")
	}
	if strings.TrimSpace(m.FinalizeKeyword) == "" {
		return errors.New("finalize keyword must not be empty")
	}
	if len(m.Greeting) == 0 {
		return errors.New("greeting needs at least one segment")
	}

	seen := make(map[string]bool, len(models.Fields))
	for _, f := range models.Fields {
		label := strings.TrimSpace(m.Label(f))
		if label == "" {
			return fmt.Errorf("label for %s must not be empty", f)
		}
		if strings.Contains(label, ":") {
			return fmt.Errorf("label %q must not contain ':'", label)
		}
		key := strings.ToLower(label)
		if seen[key] {
			return fmt.Errorf("label %q is used twice", label)
		}
		seen[key] = true
	}
	return nil
}

// Label returns the display label for a field
func (m *Messages) Label(f models.Field) string {
	switch f {
	case models.FieldName:
		return m.Labels.Name
	case models.FieldAddress:
		return m.Labels.Address
	case models.FieldOrder:
		return m.Labels.Order
	case models.FieldPayment:
		return m.Labels.Payment
	}
	return ""
}

// Text fills the {keyword} placeholder
func (m *Messages) Text(s string) string {
	return strings.ReplaceAll(s, "{keyword}", m.FinalizeKeyword)
}

// GreetingSegments returns the greeting parts in delivery order
func (m *Messages) GreetingSegments() []string {
	segments := make([]string, 0, len(m.Greeting))
	for _, g := range m.Greeting {
		segments = append(segments, m.Text(g))
	}
	return segments
}
