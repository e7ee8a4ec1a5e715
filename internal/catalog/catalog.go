// Package catalog holds the read-only reference data the triage bot reasons
// over: symptom→condition links, condition→treatment advice and the doctor
// roster. Everything here is loaded once at startup and never mutated.
package catalog

import (
	"sort"
	"strings"
)

// DefaultTreatment is returned for conditions without catalogued advice.
const DefaultTreatment = "Consult a healthcare professional"

// Symptoms maps a symptom label to the ordered conditions it may indicate.
type Symptoms struct {
	labels     []string
	conditions map[string][]string
}

// NewSymptoms copies links into an immutable catalog. Labels iterate in sorted
// order; each symptom keeps its conditions in the order given.
func NewSymptoms(links map[string][]string) *Symptoms {
	s := &Symptoms{conditions: make(map[string][]string, len(links))}
	for label, conds := range links {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		s.conditions[label] = append([]string(nil), conds...)
		s.labels = append(s.labels, label)
	}
	sort.Strings(s.labels)
	return s
}

// Labels returns every symptom label in catalog order.
func (s *Symptoms) Labels() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.labels...)
}

// Conditions returns the conditions linked to symptom, in catalog order.
func (s *Symptoms) Conditions(symptom string) []string {
	if s == nil {
		return nil
	}
	return s.conditions[symptom]
}

// Len reports the number of distinct symptoms.
func (s *Symptoms) Len() int {
	if s == nil {
		return 0
	}
	return len(s.labels)
}

// Treatments maps a condition to ordered treatment or precaution strings.
type Treatments struct {
	byCondition map[string][]string
}

// NewTreatments copies advice into an immutable catalog.
func NewTreatments(advice map[string][]string) *Treatments {
	t := &Treatments{byCondition: make(map[string][]string, len(advice))}
	for cond, items := range advice {
		t.byCondition[strings.TrimSpace(cond)] = append([]string(nil), items...)
	}
	return t
}

// For returns the treatments for condition or the default advice.
func (t *Treatments) For(condition string) []string {
	if t != nil {
		if items, ok := t.byCondition[condition]; ok && len(items) > 0 {
			return append([]string(nil), items...)
		}
	}
	return []string{DefaultTreatment}
}

// Len reports the number of conditions with advice.
func (t *Treatments) Len() int {
	if t == nil {
		return 0
	}
	return len(t.byCondition)
}
