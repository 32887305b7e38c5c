package models

import (
	_ "embed"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/feralworks/trapper-engine/pkg/normalize"
)

//go:embed vocabulary.yaml
var defaultVocabularyYAML []byte

// StatusVocabulary maps the case tracker's free-text status and priority
// vocabulary to canonical values. It is explicit configuration data, not
// inline literals, so tests can exercise the tables directly and operators
// can extend them without a code change.
type StatusVocabulary struct {
	Statuses       map[string]CaseStatus    `yaml:"statuses"`
	ArchiveReasons map[string]ArchiveReason `yaml:"archive_reasons"`
	PriorityWords  map[string]int           `yaml:"priority_words"`
}

// DefaultVocabulary returns the compiled-in vocabulary tables.
func DefaultVocabulary() StatusVocabulary {
	v, err := ParseVocabulary(defaultVocabularyYAML)
	if err != nil {
		// The embedded file is validated by tests; a parse failure here is a
		// build defect, not a runtime condition.
		panic(fmt.Sprintf("embedded vocabulary invalid: %v", err))
	}
	return v
}

// ParseVocabulary loads vocabulary tables from YAML and validates that every
// mapped value belongs to the canonical enumerations.
func ParseVocabulary(data []byte) (StatusVocabulary, error) {
	var v StatusVocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return StatusVocabulary{}, fmt.Errorf("failed to parse vocabulary: %w", err)
	}
	for raw, status := range v.Statuses {
		if !IsValidCaseStatus(status) {
			return StatusVocabulary{}, fmt.Errorf("vocabulary maps %q to unknown status %q", raw, status)
		}
	}
	for raw, reason := range v.ArchiveReasons {
		if !IsValidArchiveReason(reason) {
			return StatusVocabulary{}, fmt.Errorf("vocabulary maps %q to unknown archive reason %q", raw, reason)
		}
	}
	return v, nil
}

// CoerceStatus maps raw status text to a canonical status. Returns ok=false
// for unrecognized, non-empty values, which callers log and leave null
// rather than guess.
func (v StatusVocabulary) CoerceStatus(raw string) (CaseStatus, bool) {
	s := normalize.Whitespace(strings.ToLower(raw))
	if s == "" {
		return "", false
	}
	if status, ok := v.Statuses[s]; ok {
		return status, true
	}
	// Fallback: snake_case normalization against the allowed set, so exports
	// that already carry canonical values pass through.
	candidate := CaseStatus(normalize.SnakeCase(s))
	if IsValidCaseStatus(candidate) {
		return candidate, true
	}
	return "", false
}

// CoerceArchiveReason maps raw status text to an archive reason, if the text
// implies one.
func (v StatusVocabulary) CoerceArchiveReason(raw string) (ArchiveReason, bool) {
	s := normalize.Whitespace(strings.ToLower(raw))
	if s == "" {
		return "", false
	}
	reason, ok := v.ArchiveReasons[s]
	return reason, ok
}

var leadingDigits = regexp.MustCompile(`\d+`)

// CoercePriority coerces priority-ish text into an integer. Digits embedded
// in the label win ("2 - Medium" -> 2); otherwise the word scale applies.
// Returns ok=false when nothing usable is present.
func (v StatusVocabulary) CoercePriority(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if m := leadingDigits.FindString(s); m != "" {
		n, err := strconv.Atoi(m)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	n, ok := v.PriorityWords[normalize.Whitespace(strings.ToLower(s))]
	return n, ok
}
