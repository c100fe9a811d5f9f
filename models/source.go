package models

// SourceType discriminates how a document reaches the analysis pipeline.
type SourceType string

const (
	SourceTypeFile SourceType = "file"
	SourceTypeURL  SourceType = "url"
)

// Source is a user-supplied document reference: either an uploaded PDF
// payload or a URL pointing at one. A source is consumed once per question
// and never mutated by the pipeline.
type Source struct {
	Type SourceType `json:"type"`
	Name string     `json:"name,omitempty"` // display name of an uploaded file
	Data []byte     `json:"-"`              // payload of an uploaded file
	URL  string     `json:"url,omitempty"`  // location of a url source
}

// FileSource builds a source from an uploaded file.
func FileSource(name string, data []byte) Source {
	return Source{Type: SourceTypeFile, Name: name, Data: data}
}

// URLSource builds a source from a URL reference.
func URLSource(rawURL string) Source {
	return Source{Type: SourceTypeURL, URL: rawURL}
}

// Label returns the source's user-visible identifier for logging.
func (s Source) Label() string {
	if s.Type == SourceTypeURL {
		return s.URL
	}
	return s.Name
}
