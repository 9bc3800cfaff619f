package service

import (
	"sort"

	"markline/backend/internal/state"
)

// TrainingSamples is the number of exemplar assemblies the shift-senior
// collects before a model is emitted.
const TrainingSamples = 3

// TrainModel builds a code model from the collected exemplars: child
// prefixes become the product family, parent prefixes the set family.
// Learning succeeds only when both families are non-empty and disjoint;
// otherwise the caller discards the exemplars and resamples.
func TrainModel(samples []state.Sample) *state.CodeModel {
	productSet := make(map[string]struct{})
	setSet := make(map[string]struct{})

	for _, sample := range samples {
		for _, child := range sample.Children {
			productSet[state.Prefix16(child)] = struct{}{}
		}
		setSet[state.Prefix16(sample.Parent)] = struct{}{}
	}

	disjoint := true
	for p := range productSet {
		if _, clash := setSet[p]; clash {
			disjoint = false
			break
		}
	}

	m := &state.CodeModel{
		ProductPrefixes:    sortedKeys(productSet),
		SetPrefixes:        sortedKeys(setSet),
		LearningSuccessful: len(productSet) > 0 && len(setSet) > 0 && disjoint,
	}
	return m
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
