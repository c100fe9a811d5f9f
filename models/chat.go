package models

// ChatTurn is one question/answer pair in a session's conversation history.
// The answer starts out as a processing placeholder and is replaced exactly
// once with the final text.
type ChatTurn struct {
	Question            string `json:"question"`
	Answer              string `json:"answer"`
	IsStructuredSummary bool   `json:"is_structured_summary,omitempty"`
}

// SourceResponse is one document's answer to a question, tagged with the
// document's display name.
type SourceResponse struct {
	Filename string `json:"filename"`
	Response string `json:"response"`
}
