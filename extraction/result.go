package extraction

// Method identifies which strategy produced an extraction candidate.
type Method string

const (
	MethodTextLayer Method = "text_layer"
	MethodLayout    Method = "layout"
	MethodOCR       Method = "ocr"
	MethodConvert   Method = "convert"
	MethodHTML      Method = "html"
	MethodPlain     Method = "plain"
)

// Fragment is a positioned piece of text on a page. Coordinates use PDF
// space: origin bottom-left, Y growing upward.
type Fragment struct {
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Line is a group of fragments sharing (approximately) one vertical
// position, ordered left to right.
type Line struct {
	Y         float64    `json:"y"`
	Text      string     `json:"text"`
	Fragments []Fragment `json:"fragments,omitempty"`
}

type Page struct {
	Number int     `json:"number"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Lines  []Line  `json:"lines,omitempty"`
}

type Table struct {
	Header     []string   `json:"header"`
	Rows       [][]string `json:"rows"`
	PageNumber int        `json:"page_number"`
}

type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type Metadata struct {
	PageCount int    `json:"page_count"`
	Producer  string `json:"producer,omitempty"`
	Encrypted bool   `json:"encrypted"`
	Language  string `json:"language,omitempty"`
	NeedsOCR  bool   `json:"needs_ocr"`
}

// Result is the authoritative extraction output for one document version.
// It is not mutated after the coordinator returns it.
type Result struct {
	Text     string    `json:"text"`
	Pages    []Page    `json:"pages,omitempty"`
	Tables   []Table   `json:"tables,omitempty"`
	Sections []Section `json:"sections,omitempty"`
	Metadata Metadata  `json:"metadata"`
	Method   Method    `json:"method"`
	// Degraded is set when no candidate passed validation and the longest
	// raw candidate was used instead.
	Degraded bool `json:"degraded,omitempty"`
}
