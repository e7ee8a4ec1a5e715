// Package triage maps free-text complaints onto catalogued symptoms and picks
// the condition those symptoms most often point to.
package triage

import (
	"github.com/wolfman30/campus-triage-bot/internal/catalog"
	"github.com/wolfman30/campus-triage-bot/internal/textnorm"
)

// Matcher finds catalogued symptoms mentioned in free text.
type Matcher struct {
	catalog    *catalog.Symptoms
	normalizer *textnorm.Normalizer
	labels     []string
	tokens     map[string][]string
}

// NewMatcher pre-normalizes every symptom label once.
func NewMatcher(symptoms *catalog.Symptoms, normalizer *textnorm.Normalizer) *Matcher {
	if normalizer == nil {
		normalizer = textnorm.English()
	}
	m := &Matcher{
		catalog:    symptoms,
		normalizer: normalizer,
		labels:     symptoms.Labels(),
		tokens:     make(map[string][]string, symptoms.Len()),
	}
	for _, label := range m.labels {
		m.tokens[label] = normalizer.Normalize(label)
	}
	return m
}

// Match returns every symptom whose label shares at least one normalized
// token with input, in catalog order.
func (m *Matcher) Match(input string) []string {
	inputTokens := m.normalizer.Normalize(input)
	if len(inputTokens) == 0 {
		return nil
	}
	present := make(map[string]struct{}, len(inputTokens))
	for _, tok := range inputTokens {
		present[tok] = struct{}{}
	}

	var matched []string
	for _, label := range m.labels {
		for _, tok := range m.tokens[label] {
			if _, ok := present[tok]; ok {
				matched = append(matched, label)
				break
			}
		}
	}
	return matched
}
