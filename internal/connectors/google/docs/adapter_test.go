package docs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/custodia-labs/sercha-sync/internal/connectors/google"
	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// stubTokenProvider implements driven.TokenProvider for tests.
type stubTokenProvider struct {
	token string
	err   error
}

func (p *stubTokenProvider) GetToken(_ context.Context) (string, error) { return p.token, p.err }
func (p *stubTokenProvider) Name() string                               { return "google" }

type fakeFile struct {
	name     string
	mimeType string
	exports  map[string]string
}

// fakeDrive serves the subset of the Drive v3 API the adapter uses.
type fakeDrive struct {
	mu          sync.Mutex
	files       map[string]fakeFile
	failures    map[string][]int
	aboutStatus int
	exported    []string
}

func newFakeDrive() *fakeDrive {
	return &fakeDrive{files: make(map[string]fakeFile), failures: make(map[string][]int)}
}

// fail makes the next requests for path answer with the given statuses.
func (d *fakeDrive) fail(path string, statuses ...int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[path] = append(d.failures[path], statuses...)
}

func (d *fakeDrive) nextFailure(path string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.failures[path]) == 0 {
		return 0
	}
	code := d.failures[path][0]
	d.failures[path] = d.failures[path][1:]
	return code
}

func writeAPIError(w http.ResponseWriter, code int, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": http.StatusText(code),
			"errors":  []map[string]string{{"reason": reason, "message": http.StatusText(code)}},
		},
	})
}

func (d *fakeDrive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	if code := d.nextFailure(path); code != 0 {
		writeAPIError(w, code, "backendError")
		return
	}

	if path == "about" {
		if d.aboutStatus != 0 {
			writeAPIError(w, d.aboutStatus, "authError")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"user": map[string]string{"emailAddress": "me@example.com"}})
		return
	}

	parts := strings.Split(strings.TrimPrefix(path, "files/"), "/")
	file, ok := d.files[parts[0]]
	if !ok || !strings.HasPrefix(path, "files/") {
		writeAPIError(w, http.StatusNotFound, "notFound")
		return
	}

	if len(parts) == 2 && parts[1] == "export" {
		mime := r.URL.Query().Get("mimeType")
		body, ok := file.exports[mime]
		if !ok {
			writeAPIError(w, http.StatusBadRequest, "badRequest")
			return
		}
		d.mu.Lock()
		d.exported = append(d.exported, parts[0]+":"+mime)
		d.mu.Unlock()
		_, _ = w.Write([]byte(body))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"id":           parts[0],
		"name":         file.name,
		"mimeType":     file.mimeType,
		"modifiedTime": "2026-03-01T10:00:00Z",
	})
}

func newTestAdapter(t *testing.T, cfg domain.SourceConfig, d *fakeDrive) *Adapter {
	t.Helper()

	srv := httptest.NewServer(d)
	t.Cleanup(srv.Close)

	cfg.ApplyDefaults()
	a, err := New(context.Background(), cfg, &stubTokenProvider{token: "tok"},
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	a.retry.BaseDelay = time.Millisecond
	a.retry.MaxDelay = 5 * time.Millisecond
	a.limiter = google.NewRateLimiterWithConfig(google.RateLimitConfig{RequestsPerSecond: 1000, BurstSize: 100})
	return a
}

const (
	docID   = "1DesignDocId"
	sheetID = "1BudgetSheet"
)

func seedDrive() *fakeDrive {
	d := newFakeDrive()
	d.files[docID] = fakeFile{
		name:     "Design Notes",
		mimeType: MimeTypeDocument,
		exports: map[string]string{
			"text/html":     `<p>Budget: <a href="https://docs.google.com/spreadsheets/d/1BudgetSheet/edit">sheet</a></p>`,
			"text/plain":    "Budget: sheet",
			"text/markdown": "Budget: [sheet](https://docs.google.com/spreadsheets/d/1BudgetSheet/edit)",
		},
	}
	d.files[sheetID] = fakeFile{
		name:     "Budget",
		mimeType: MimeTypeSpreadsheet,
		exports:  map[string]string{"text/csv": "item,cost\nrent,100\n"},
	}
	return d
}

func docsConfig(format string) domain.SourceConfig {
	return domain.SourceConfig{
		Name:   "team-docs",
		Type:   domain.SourceTypeDocumentSuite,
		Seeds:  []domain.Seed{{ID: "https://docs.google.com/document/d/" + docID + "/edit"}},
		Format: format,
	}
}

func TestAdapter_Enumerate(t *testing.T) {
	cfg := docsConfig("")
	cfg.Seeds = append(cfg.Seeds, domain.Seed{ID: sheetID, Format: "pdf"})
	a := newTestAdapter(t, cfg, seedDrive())

	seeds, err := a.Enumerate(context.Background())
	require.NoError(t, err)
	require.Len(t, seeds, 2)
	assert.Equal(t, docID, seeds[0].ID)
	assert.Equal(t, sheetID, seeds[1].ID)
	assert.Equal(t, "pdf", seeds[1].Format)
}

func TestAdapter_Enumerate_InvalidSeed(t *testing.T) {
	cfg := docsConfig("")
	cfg.Seeds = []domain.Seed{{ID: "https://example.com/not-a-doc"}}
	a := newTestAdapter(t, cfg, seedDrive())

	_, err := a.Enumerate(context.Background())
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestAdapter_FetchAndConvert(t *testing.T) {
	d := seedDrive()
	a := newTestAdapter(t, docsConfig("md"), d)

	raw, err := a.Fetch(context.Background(), docID)
	require.NoError(t, err)

	assert.Equal(t, docID, raw.Identifier)
	assert.Equal(t, string(KindDocument), raw.Kind)
	assert.Equal(t, "Design Notes", raw.Title)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), raw.ModifiedAt.UTC())
	assert.Contains(t, string(raw.Body), "<a href=")
	assert.Equal(t, []string{docID + ":text/html", docID + ":text/markdown"}, d.exported)

	item, err := a.Convert(raw, "md")
	require.NoError(t, err)
	assert.Equal(t, "design-notes-"+docID+".md", item.RelativePath)
	assert.Equal(t, docID, item.SourceIdentifier)
	assert.Contains(t, string(item.Content), "[sheet]")
	assert.Empty(t, item.ContentHash)

	assert.Equal(t, []string{sheetID}, a.ExtractLinks(raw))
}

func TestAdapter_Fetch_FailedExtraRenditionIsSkipped(t *testing.T) {
	d := seedDrive()
	cfg := docsConfig("txt")
	cfg.Seeds = append(cfg.Seeds, domain.Seed{ID: sheetID, Format: "pdf"})
	a := newTestAdapter(t, cfg, d)

	// The document has no PDF export, so that rendition fails.
	raw, err := a.Fetch(context.Background(), docID)
	require.NoError(t, err)
	assert.Contains(t, raw.Renditions, "html")
	assert.Contains(t, raw.Renditions, "txt")
	assert.NotContains(t, raw.Renditions, "pdf")

	item, err := a.Convert(raw, "txt")
	require.NoError(t, err)
	assert.Equal(t, "Budget: sheet", string(item.Content))

	_, err = a.Convert(raw, "pdf")
	assert.ErrorIs(t, err, domain.ErrItemFetch)
}

func TestAdapter_DefaultFormats(t *testing.T) {
	a := newTestAdapter(t, docsConfig(""), seedDrive())

	doc, err := a.Fetch(context.Background(), docID)
	require.NoError(t, err)
	item, err := a.Convert(doc, "")
	require.NoError(t, err)
	assert.Equal(t, "design-notes-"+docID+".txt", item.RelativePath)
	assert.Equal(t, "Budget: sheet", string(item.Content))

	sheet, err := a.Fetch(context.Background(), sheetID)
	require.NoError(t, err)
	item, err = a.Convert(sheet, "")
	require.NoError(t, err)
	assert.Equal(t, "budget-"+sheetID+".csv", item.RelativePath)
}

func TestAdapter_Convert_UnsupportedFormat(t *testing.T) {
	a := newTestAdapter(t, docsConfig("md"), seedDrive())

	sheet, err := a.Fetch(context.Background(), sheetID)
	require.NoError(t, err)

	_, err = a.Convert(sheet, "md")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestAdapter_Fetch_Errors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(d *fakeDrive)
		id      string
		wantErr error
	}{
		{
			name:    "not found",
			setup:   func(d *fakeDrive) {},
			id:      "1MissingFileId",
			wantErr: domain.ErrItemFetch,
		},
		{
			name: "not a workspace file",
			setup: func(d *fakeDrive) {
				d.files["1PlainPdfFile"] = fakeFile{name: "scan", mimeType: "application/pdf"}
			},
			id:      "1PlainPdfFile",
			wantErr: domain.ErrItemFetch,
		},
		{
			name:    "unauthorised",
			setup:   func(d *fakeDrive) { d.fail("files/"+docID, http.StatusUnauthorized) },
			id:      docID,
			wantErr: domain.ErrAuthentication,
		},
		{
			name: "server errors exhaust retries",
			setup: func(d *fakeDrive) {
				d.fail("files/"+docID, http.StatusServiceUnavailable, http.StatusServiceUnavailable,
					http.StatusServiceUnavailable, http.StatusServiceUnavailable)
			},
			id:      docID,
			wantErr: domain.ErrTransientNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := seedDrive()
			tt.setup(d)
			a := newTestAdapter(t, docsConfig(""), d)

			_, err := a.Fetch(context.Background(), tt.id)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAdapter_Fetch_RetriesTransientFailures(t *testing.T) {
	d := seedDrive()
	d.fail("files/"+docID, http.StatusServiceUnavailable)
	d.fail(fmt.Sprintf("files/%s/export", docID), http.StatusTooManyRequests)
	a := newTestAdapter(t, docsConfig(""), d)

	raw, err := a.Fetch(context.Background(), docID)
	require.NoError(t, err)
	assert.Equal(t, "Design Notes", raw.Title)
}

func TestAdapter_Validate(t *testing.T) {
	t.Run("valid credential", func(t *testing.T) {
		a := newTestAdapter(t, docsConfig(""), seedDrive())
		assert.NoError(t, a.Validate(context.Background()))
	})

	t.Run("rejected credential", func(t *testing.T) {
		d := seedDrive()
		d.aboutStatus = http.StatusUnauthorized
		a := newTestAdapter(t, docsConfig(""), d)
		assert.ErrorIs(t, a.Validate(context.Background()), domain.ErrAuthentication)
	})

	t.Run("insufficient scope", func(t *testing.T) {
		d := seedDrive()
		d.aboutStatus = http.StatusForbidden
		a := newTestAdapter(t, docsConfig(""), d)
		assert.ErrorIs(t, a.Validate(context.Background()), domain.ErrAuthentication)
	})

	t.Run("empty token", func(t *testing.T) {
		a := newTestAdapter(t, docsConfig(""), seedDrive())
		a.provider = &stubTokenProvider{}
		assert.ErrorIs(t, a.Validate(context.Background()), domain.ErrAuthentication)
	})

	t.Run("provider error", func(t *testing.T) {
		a := newTestAdapter(t, docsConfig(""), seedDrive())
		a.provider = &stubTokenProvider{err: fmt.Errorf("token file missing")}
		assert.ErrorIs(t, a.Validate(context.Background()), domain.ErrAuthentication)
	})
}

func TestNew_RequiresProvider(t *testing.T) {
	_, err := New(context.Background(), docsConfig(""), nil)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestAdapter_NormaliseIdentifier(t *testing.T) {
	a := newTestAdapter(t, docsConfig(""), seedDrive())

	id, ok := a.NormaliseIdentifier("https://docs.google.com/document/d/" + docID + "/edit")
	assert.True(t, ok)
	assert.Equal(t, docID, id)
	assert.Equal(t, domain.SourceTypeDocumentSuite, a.Type())
	assert.NoError(t, a.Close())
}
