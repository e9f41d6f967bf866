package model

// SourceFormat identifies the statement format a file was produced by.
type SourceFormat string

// Supported statement formats.
const (
	FormatRevolut SourceFormat = "revolut"
	FormatWise    SourceFormat = "wise"
	FormatNubank  SourceFormat = "nubank"
	FormatOFX     SourceFormat = "ofx"
	FormatUnknown SourceFormat = "unknown"
)

// FileKind is the physical file type of a statement.
type FileKind string

// File kind constants.
const (
	FileKindCSV     FileKind = "csv"
	FileKindOFX     FileKind = "ofx"
	FileKindUnknown FileKind = "unknown"
)

// DetectionResult is the outcome of format detection for an uploaded file.
// Confidence is 1.0 only when content-level structural markers matched;
// filename-based guesses cap at 0.7.
type DetectionResult struct {
	Format     SourceFormat
	Kind       FileKind
	Confidence float64
}

// DisplayName returns a human-friendly name for a source format.
func (f SourceFormat) DisplayName() string {
	switch f {
	case FormatRevolut:
		return "Revolut"
	case FormatWise:
		return "Wise"
	case FormatNubank:
		return "Nubank"
	case FormatOFX:
		return "OFX"
	default:
		return "Unknown"
	}
}
