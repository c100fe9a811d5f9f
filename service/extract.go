package service

import (
	"encoding/json"
	"regexp"

	"licitaciones-backend/models"

	"go.uber.org/zap"
)

var jsonFenceRe = regexp.MustCompile("(?s)```json\n(.*?)\n```")

// ExtractJSON pulls the structured summary out of a Markdown-fenced model
// answer. A fenced ```json block is parsed first; without one the whole
// text is tried as JSON. Any parse failure yields nil, logged but never
// raised — this is best-effort post-processing for the summary question
// only.
func ExtractJSON(text string) models.Summary {
	if m := jsonFenceRe.FindStringSubmatch(text); m != nil {
		var summary models.Summary
		if err := json.Unmarshal([]byte(m[1]), &summary); err != nil {
			zap.L().Error("failed to parse fenced JSON block", zap.Error(err))
			return nil
		}
		return summary
	}

	var summary models.Summary
	if err := json.Unmarshal([]byte(text), &summary); err != nil {
		zap.L().Error("failed to parse answer as JSON", zap.Error(err))
		return nil
	}
	return summary
}
