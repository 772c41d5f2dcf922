package constants

import "strings"

// QuotaCategory buckets uploads for monthly usage accounting.
// Spreadsheets and PDFs share the documents bucket.
type QuotaCategory string

const (
	CategoryImages    QuotaCategory = "IMAGES"
	CategoryDocuments QuotaCategory = "DOCUMENTS"
)

// FileKind selects the extraction strategy for an upload.
type FileKind string

const (
	IMAGE       FileKind = "IMAGE"
	SPREADSHEET FileKind = "SPREADSHEET"
	PDF         FileKind = "PDF"
)

// MaxFileBytes caps any single upload at 10 MiB.
const MaxFileBytes = 10 * 1024 * 1024

var extToKind = map[string]FileKind{
	"jpg":  IMAGE,
	"jpeg": IMAGE,
	"png":  IMAGE,
	"webp": IMAGE,
	"csv":  SPREADSHEET,
	"tsv":  SPREADSHEET,
	"xlsx": SPREADSHEET,
	"pdf":  PDF,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToKind returns the file kind for an extension, or "" if unsupported.
func MapExtToKind(ext string) FileKind {
	return extToKind[NormalizeExt(ext)]
}

// KindToCategory maps a file kind onto its quota bucket.
func KindToCategory(kind FileKind) QuotaCategory {
	if kind == IMAGE {
		return CategoryImages
	}
	return CategoryDocuments
}
