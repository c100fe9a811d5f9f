package service

import (
	"fmt"
	"strings"

	"licitaciones-backend/models"
)

// basePrompt is the fixed domain framing sent with every question. The text
// is part of the observable contract and is reproduced byte for byte.
const basePrompt = `Eres un asistente de inteligencia artificial especializado en licitaciones españolas y tus usuarios son empresas españolas que buscan aplicar a licitaciones.
        Los documentos que te proporcionaré son documentos de licitaciones españolas.
        Debes responder teniendo en cuenta este contexto, evitando responder preguntas no relacionadas.
        Es relevante obtener un resumen de la licitación que incluya el precio de la licitación, requisitos técnicos y administrativos, potencialidad, fórmulas de relevancia con propuestas de valores y resumen de posibles problemas o ventajas para la empresa que aplica.
        Es también relevante proporcionar recomendación sobre si aplicar o no.`

// BuildPrompt assembles the domain preamble, the optional conversation
// transcript, and the current question. The transcript appears only when
// more than one turn exists and always excludes the most recent turn, whose
// answer is still the in-flight placeholder.
func BuildPrompt(question string, history []models.ChatTurn) string {
	var transcript strings.Builder
	if len(history) > 1 {
		transcript.WriteString("\n\nHistorial de la conversación:")
		for i, turn := range history[:len(history)-1] {
			fmt.Fprintf(&transcript, "\n\nPregunta %d: %s", i+1, turn.Question)
			fmt.Fprintf(&transcript, "\nRespuesta %d: %s", i+1, turn.Answer)
		}
		transcript.WriteString("\n\n")
	}
	return fmt.Sprintf("%s\n\n%s\n\nPregunta: %s", basePrompt, transcript.String(), question)
}

// SummaryQuestionKey selects the one predefined question whose answer is
// expected to be a structured JSON summary.
const SummaryQuestionKey = "Resumen de licitación (JSON)"

// summaryQuestion carries backticks and quotes, so it cannot be a raw
// string literal.
const summaryQuestion = "Analiza este documento de licitación y devuelve un JSON con la siguiente estructura en formato Markdown:\n\n" +
	"```json\n" +
	"{\n" +
	"  \"porcentaje_recomendacion\": \"X%\",\n" +
	"  \"porcentaje_recomendacion_short_explain\": \"Breve explicación de 1-2 frases sobre el porcentaje de recomendación\",\n" +
	"  \"objeto_contrato\": \"Descripción detallada del objeto del contrato\",\n" +
	"  \"presupuesto\": \"Presupuesto Base de Licitación (sin IVA)\",\n" +
	"  \"solvencia_requerida\": \"Niveles de solvencia técnica y económica requeridos\",\n" +
	"  \"habilitaciones_necesarias\": \"Lista de habilitaciones, certificaciones o requisitos necesarios\",\n" +
	"  \"garantias\": \"Detalles sobre las garantías requeridas (provisionales, definitivas, etc.)\",\n" +
	"  \"ecuaciones\": \"Fórmulas o criterios de valoración si los hay\",\n" +
	"  \"otras_condiciones\": \"Otras condiciones relevantes de la licitación\",\n" +
	"  \"recomendacion\": \"Análisis detallado y recomendación sobre la conveniencia de participar\"\n" +
	"}\n" +
	"```\n\n" +
	"Por favor, completa cada campo con la información relevante extraída del documento. " +
	"Si algún dato no está disponible, indícalo como No especificado. " +
	"El campo `porcentaje_recomendacion` debe ser un porcentaje (ej: \"75%\") y `porcentaje_recomendacion_short_explain` debe ser una explicación concisa de 1-2 frases. " +
	"Todos los valores de este JSON serán strings que siguen el formato markdown."

// predefinedQuestions maps short menu titles to the detailed question
// bodies sent to the model.
var predefinedQuestions = map[string]string{
	"Resumen del documento":   "Por favor, proporciona un resumen detallado de los puntos clave de este documento, incluyendo los temas principales, hallazgos importantes y conclusiones relevantes. Incluye ejemplos específicos cuando sea posible.",
	"Tema principal":          "Analiza cuidadosamente este documento y describe en detalle cuál es su tema principal. Explica por qué es importante este tema y cómo se desarrolla a lo largo del texto. Incluye subtemas o aspectos clave que apoyen el tema principal.",
	"Hallazgos principales":   "Identifica y enumera los hallazgos o conclusiones principales presentados en este documento. Para cada hallazgo, proporciona el contexto necesario y explica su relevancia. Si es posible, incluye datos o estadísticas específicas que respalden estos hallazgos.",
	"Argumentos clave":        "Analiza y describe en detalle los argumentos principales presentados en este documento. Explica la lógica detrás de cada argumento, las pruebas presentadas y cómo se relacionan entre sí. Evalúa la solidez de estos argumentos si es posible.",
	"Fechas importantes":      "Extrae y enumera todas las fechas, plazos o hitos importantes mencionados en este documento. Para cada uno, proporciona el contexto relevante, incluyendo qué evento o acción está programada y cualquier consecuencia o requisito asociado.",
	"Metodología":             "Describe en detalle la metodología utilizada en este documento. Explica los métodos de investigación, herramientas, técnicas o enfoques empleados, así como la justificación para su uso. Incluye cualquier limitación o consideración especial mencionada.",
	"Recomendaciones":         "Identifica y describe todas las recomendaciones o elementos de acción propuestos en este documento. Para cada uno, explica su propósito, a quién está dirigido y qué resultados se esperan lograr. Incluye cualquier marco de tiempo o recurso mencionado.",
	"Limitaciones":            "Detalla las limitaciones o restricciones mencionadas en este documento. Explica cómo estas limitaciones podrían afectar los hallazgos o conclusiones presentadas. Si se mencionan formas de mitigar estas limitaciones, inclúyelas también.",
	"Datos y estadísticas":    "Extrae y resume los datos, estadísticas o cifras clave mencionadas en este documento. Para cada dato, proporciona el contexto, la fuente si está disponible y su relevancia para los hallazgos o conclusiones del documento.",
	"Estructura del documento": "Describe la estructura y organización de este documento. Identifica las secciones principales, su propósito y cómo se relacionan entre sí. Explica cómo esta estructura ayuda a presentar la información de manera efectiva.",
	SummaryQuestionKey:        summaryQuestion,
}

// questionOrder fixes the menu order of the predefined questions.
var questionOrder = []string{
	"Resumen del documento",
	"Tema principal",
	"Hallazgos principales",
	"Argumentos clave",
	"Fechas importantes",
	"Metodología",
	"Recomendaciones",
	"Limitaciones",
	"Datos y estadísticas",
	"Estructura del documento",
	SummaryQuestionKey,
}

// PredefinedQuestion returns the detailed body for a predefined question
// key.
func PredefinedQuestion(key string) (string, bool) {
	body, ok := predefinedQuestions[key]
	return body, ok
}

// QuestionKeys returns the predefined question keys in menu order.
func QuestionKeys() []string {
	keys := make([]string, len(questionOrder))
	copy(keys, questionOrder)
	return keys
}
