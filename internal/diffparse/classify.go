// File path: internal/diffparse/classify.go
package diffparse

import "strings"

// Kind selects which specialized extractor applies to a changed file.
type Kind int

const (
	// KindNone marks files with no specialized summarizer.
	KindNone Kind = iota
	// KindCSV marks the tabular translation file.
	KindCSV
	// KindXLIFF marks localization bundles.
	KindXLIFF
)

func (k Kind) String() string {
	switch k {
	case KindCSV:
		return "csv"
	case KindXLIFF:
		return "xliff"
	default:
		return "none"
	}
}

// Classify decides a file's kind purely from its path. translationCSV is the
// basename of the tracked translation table.
func Classify(filename, translationCSV string) Kind {
	if translationCSV != "" && (filename == translationCSV || strings.HasSuffix(filename, "/"+translationCSV)) {
		return KindCSV
	}
	if strings.HasSuffix(filename, ".xliff") {
		return KindXLIFF
	}
	return KindNone
}
