package triage

import "github.com/wolfman30/campus-triage-bot/internal/catalog"

// Resolver picks the condition implicated most often by a symptom history.
type Resolver struct {
	catalog *catalog.Symptoms
}

// NewResolver builds a resolver over the symptom catalog.
func NewResolver(symptoms *catalog.Symptoms) *Resolver {
	return &Resolver{catalog: symptoms}
}

// Resolve counts every condition reachable from every symptom (repeats
// included) and returns the most frequent. Ties go to the condition seen
// first while walking symptoms in sequence order and each symptom's
// conditions in catalog order.
func (r *Resolver) Resolve(symptoms []string) (string, bool) {
	counts := r.Tally(symptoms)
	best, found := "", false
	for _, symptom := range symptoms {
		for _, cond := range r.catalog.Conditions(symptom) {
			if !found || counts[cond] > counts[best] {
				best, found = cond, true
			}
		}
	}
	return best, found
}

// Tally returns the per-condition multiplicity for a symptom history.
func (r *Resolver) Tally(symptoms []string) map[string]int {
	counts := map[string]int{}
	for _, symptom := range symptoms {
		for _, cond := range r.catalog.Conditions(symptom) {
			counts[cond]++
		}
	}
	return counts
}
