package report

// Report is the structured output of the OCR collaborator for one document.
// Field names follow the OCR payload contract consumed by the frontend.
type Report struct {
	File        string `json:"arquivo"`
	ProcessedAt string `json:"data_processamento"`
	Pages       []Page `json:"paginas"`
}

// Page carries the raw markdown text and image descriptors of one scanned page.
// Immutable once handed to the pipeline.
type Page struct {
	Number int        `json:"numero"`
	Text   string     `json:"texto"`
	Images []ImageRef `json:"imagens"`
}

// ImagePosition is the bounding box of an extracted image region.
type ImagePosition struct {
	TopLeftX     int `json:"top_left_x"`
	TopLeftY     int `json:"top_left_y"`
	BottomRightX int `json:"bottom_right_x"`
	BottomRightY int `json:"bottom_right_y"`
}

// ImageRef describes one image region found by the OCR service.
type ImageRef struct {
	ID            string        `json:"id"`
	Position      ImagePosition `json:"posicao"`
	FilePath      string        `json:"caminho_arquivo,omitempty"`
	ExtractedText string        `json:"texto_extraido,omitempty"`
	Base64        string        `json:"image_base64,omitempty"`
}

// ExtractedTable is a parsed markdown table. It has no identity beyond its
// position within the page it was extracted from.
type ExtractedTable struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// SlideType classifies a slide for the presentation layer.
type SlideType string

const (
	SlideTypeTitle           SlideType = "title"
	SlideTypePatientInfo     SlideType = "patient_info"
	SlideTypeGeneticSection  SlideType = "genetic_section"
	SlideTypeSection         SlideType = "section"
	SlideTypeRecommendations SlideType = "recommendations"
)

// Slide is the normalized unit of presentation content produced by the
// pipeline. Slides are never mutated after creation, only replaced.
type Slide struct {
	Type    SlideType        `json:"type"`
	Title   string           `json:"title"`
	Content string           `json:"content"`
	Tables  []ExtractedTable `json:"tables,omitempty"`
	Images  []ImageRef       `json:"images,omitempty"`
}
