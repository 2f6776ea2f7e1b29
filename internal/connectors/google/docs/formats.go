package docs

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// Kind is the native kind of a document in the suite.
type Kind string

// Supported document kinds.
const (
	KindDocument     Kind = "document"
	KindSpreadsheet  Kind = "spreadsheet"
	KindPresentation Kind = "presentation"
)

// Google Workspace MIME types.
const (
	MimeTypeDocument     = "application/vnd.google-apps.document"
	MimeTypeSpreadsheet  = "application/vnd.google-apps.spreadsheet"
	MimeTypePresentation = "application/vnd.google-apps.presentation"
)

// Export is one export format of a kind.
type Export struct {
	// Format is the user-facing format name, also the file extension.
	Format string
	// MimeType is passed to the Drive export endpoint.
	MimeType string
}

type kindInfo struct {
	defaultFormat string
	// linkFormat is the text rendering scanned for links.
	linkFormat string
	exports    map[string]string
}

var kinds = map[Kind]kindInfo{
	KindDocument: {
		defaultFormat: "txt",
		linkFormat:    "html",
		exports: map[string]string{
			"txt":  "text/plain",
			"md":   "text/markdown",
			"html": "text/html",
			"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			"pdf":  "application/pdf",
		},
	},
	KindSpreadsheet: {
		defaultFormat: "csv",
		linkFormat:    "csv",
		exports: map[string]string{
			"csv":  "text/csv",
			"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			"pdf":  "application/pdf",
		},
	},
	KindPresentation: {
		defaultFormat: "txt",
		linkFormat:    "txt",
		exports: map[string]string{
			"txt":  "text/plain",
			"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
			"pdf":  "application/pdf",
		},
	},
}

// KindForMimeType maps a Drive MIME type to a document kind.
func KindForMimeType(mimeType string) (Kind, bool) {
	switch mimeType {
	case MimeTypeDocument:
		return KindDocument, true
	case MimeTypeSpreadsheet:
		return KindSpreadsheet, true
	case MimeTypePresentation:
		return KindPresentation, true
	default:
		return "", false
	}
}

// DefaultFormat returns the format used when none is configured.
func (k Kind) DefaultFormat() string {
	return kinds[k].defaultFormat
}

// Formats returns the supported export formats of the kind, sorted.
func (k Kind) Formats() []string {
	info := kinds[k]
	out := make([]string, 0, len(info.exports))
	for f := range info.exports {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// ResolveExport returns the export for format, falling back to the kind's
// default when format is empty. An unsupported format is a configuration error.
func (k Kind) ResolveExport(format string) (Export, error) {
	info, ok := kinds[k]
	if !ok {
		return Export{}, fmt.Errorf("%w: unknown document kind %q", domain.ErrConfiguration, k)
	}
	if format == "" {
		format = info.defaultFormat
	}
	mime, ok := info.exports[format]
	if !ok {
		return Export{}, fmt.Errorf("%w: format %q is not supported for %s (supported: %v)",
			domain.ErrConfiguration, format, k, k.Formats())
	}
	return Export{Format: format, MimeType: mime}, nil
}

func (k Kind) linkExport() Export {
	exp, _ := k.ResolveExport(kinds[k].linkFormat)
	return exp
}
