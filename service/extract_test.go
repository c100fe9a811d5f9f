package service

import (
	"testing"

	"licitaciones-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONFencedBlock(t *testing.T) {
	text := "```json\n{\"a\": \"1\"}\n```"
	got := ExtractJSON(text)
	assert.Equal(t, models.Summary{"a": "1"}, got)
}

func TestExtractJSONFencedBlockWithSurroundingText(t *testing.T) {
	text := "Aquí está el resumen solicitado:\n\n```json\n{\"presupuesto\": \"1.200.000 €\", \"garantias\": \"No especificado\"}\n```\n\nEspero que sea útil."
	got := ExtractJSON(text)
	require.NotNil(t, got)
	assert.Equal(t, "1.200.000 €", got["presupuesto"])
	assert.Equal(t, "No especificado", got["garantias"])
}

func TestExtractJSONBareObject(t *testing.T) {
	got := ExtractJSON(`{"a": "1"}`)
	assert.Equal(t, models.Summary{"a": "1"}, got)
}

func TestExtractJSONNonJSONText(t *testing.T) {
	assert.Nil(t, ExtractJSON("El documento describe una licitación de obras."))
}

func TestExtractJSONMalformedFencedBlock(t *testing.T) {
	// A fenced block that fails to parse yields nil; the extractor does not
	// fall through to whole-text parsing.
	text := "```json\n{not json}\n```"
	assert.Nil(t, ExtractJSON(text))
}

func TestExtractJSONEmptyInput(t *testing.T) {
	assert.Nil(t, ExtractJSON(""))
}
