package docs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

func TestKind_ResolveExport(t *testing.T) {
	tests := []struct {
		name       string
		kind       Kind
		format     string
		wantFormat string
		wantMime   string
		wantErr    bool
	}{
		{"document default", KindDocument, "", "txt", "text/plain", false},
		{"document markdown", KindDocument, "md", "md", "text/markdown", false},
		{"document pdf", KindDocument, "pdf", "pdf", "application/pdf", false},
		{"spreadsheet default", KindSpreadsheet, "", "csv", "text/csv", false},
		{"presentation default", KindPresentation, "", "txt", "text/plain", false},
		{"spreadsheet markdown", KindSpreadsheet, "md", "", "", true},
		{"presentation docx", KindPresentation, "docx", "", "", true},
		{"unknown kind", Kind("drawing"), "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, err := tt.kind.ResolveExport(tt.format)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFormat, exp.Format)
			assert.Equal(t, tt.wantMime, exp.MimeType)
		})
	}
}

func TestKindForMimeType(t *testing.T) {
	k, ok := KindForMimeType(MimeTypeSpreadsheet)
	assert.True(t, ok)
	assert.Equal(t, KindSpreadsheet, k)

	_, ok = KindForMimeType("application/pdf")
	assert.False(t, ok)
}

func TestKind_Formats(t *testing.T) {
	assert.Equal(t, []string{"docx", "html", "md", "pdf", "txt"}, KindDocument.Formats())
	assert.Equal(t, []string{"csv", "pdf", "xlsx"}, KindSpreadsheet.Formats())
}
