package constants

// ExtractionStatus tags the outcome of a text extraction.
type ExtractionStatus string

const (
	ExtractionOK          ExtractionStatus = "OK"          // text was produced
	ExtractionNoText      ExtractionStatus = "NO_TEXT"     // supported input, OCR returned nothing
	ExtractionUnsupported ExtractionStatus = "UNSUPPORTED" // media type not handled; text is empty
)
