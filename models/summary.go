package models

import "strings"

// NotSpecified is the sentinel value the summary prompt instructs the model
// to emit for fields without extractable data.
const NotSpecified = "No especificado"

// Summary is the structured tender summary extracted from the model's JSON
// answer. All values are strings; a missing key or the NotSpecified sentinel
// (case-insensitive) both mean "no data".
type Summary map[string]string

// Summary field keys as emitted by the structured-summary prompt.
const (
	FieldRecommendationPercent = "porcentaje_recomendacion"
	FieldRecommendationExplain = "porcentaje_recomendacion_short_explain"
	FieldContractObject        = "objeto_contrato"
	FieldBudget                = "presupuesto"
	FieldSolvency              = "solvencia_requerida"
	FieldQualifications        = "habilitaciones_necesarias"
	FieldGuarantees            = "garantias"
	FieldFormulas              = "ecuaciones"
	FieldOtherConditions       = "otras_condiciones"
	FieldRecommendation        = "recomendacion"
)

// SummaryField is one renderable card of the structured summary.
type SummaryField struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// detailFields lists the card fields in display order. The recommendation
// percentage and its short explanation are rendered separately.
var detailFields = []struct {
	key   string
	label string
}{
	{FieldContractObject, "Objeto del Contrato"},
	{FieldBudget, "Presupuesto"},
	{FieldSolvency, "Solvencia Requerida"},
	{FieldQualifications, "Habilitaciones Necesarias"},
	{FieldGuarantees, "Garantías"},
	{FieldFormulas, "Fórmulas de Valoración"},
	{FieldOtherConditions, "Otras Condiciones"},
	{FieldRecommendation, "Recomendación"},
}

// Specified reports whether the summary carries usable data for a key.
func (s Summary) Specified(key string) bool {
	v, ok := s[key]
	if !ok || v == "" {
		return false
	}
	return !strings.EqualFold(v, NotSpecified)
}

// RecommendationPercent returns the headline recommendation percentage, or
// an empty string when the model did not provide one.
func (s Summary) RecommendationPercent() string {
	if !s.Specified(FieldRecommendationPercent) {
		return ""
	}
	return s[FieldRecommendationPercent]
}

// RecommendationExplain returns the short explanation accompanying the
// recommendation percentage.
func (s Summary) RecommendationExplain() string {
	if !s.Specified(FieldRecommendationExplain) {
		return ""
	}
	return s[FieldRecommendationExplain]
}

// Fields returns the labeled detail fields that carry data, in display
// order. Fields whose value is absent or the NotSpecified sentinel are
// omitted.
func (s Summary) Fields() []SummaryField {
	fields := make([]SummaryField, 0, len(detailFields))
	for _, f := range detailFields {
		if !s.Specified(f.key) {
			continue
		}
		fields = append(fields, SummaryField{Key: f.key, Label: f.label, Value: s[f.key]})
	}
	return fields
}
