package docs

import (
	"html"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

var (
	// fileIDPattern matches a bare Drive file ID.
	fileIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{10,}$`)

	// linkPatterns find document references in exported text.
	linkPatterns = []*regexp.Regexp{
		regexp.MustCompile(`docs\.google\.com/(?:document|spreadsheets|presentation)/(?:u/\d+/)?d/([A-Za-z0-9_-]{10,})`),
		regexp.MustCompile(`drive\.google\.com/file/(?:u/\d+/)?d/([A-Za-z0-9_-]{10,})`),
		regexp.MustCompile(`drive\.google\.com/open\?(?:[^\s"'<>]*&)?id=([A-Za-z0-9_-]{10,})`),
	}
)

// ExtractID returns the file ID of a bare ID or a document URL.
func ExtractID(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if fileIDPattern.MatchString(ref) {
		return ref, true
	}
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return "", false
	}
	if id := u.Query().Get("id"); u.Host == "drive.google.com" && fileIDPattern.MatchString(id) {
		return id, true
	}
	for _, re := range linkPatterns[:2] {
		if m := re.FindStringSubmatch(u.Host + u.Path); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// encodedPattern matches a token carrying percent escapes, such as the
// target of a redirect wrapper.
var encodedPattern = regexp.MustCompile(`[^\s"'<>]*%[0-9A-Fa-f]{2}[^\s"'<>]*`)

// FindLinkedIDs returns the distinct file IDs referenced in body, in order of
// first appearance. HTML entities are decoded first, and each percent-encoded
// token is decoded on its own.
func FindLinkedIDs(body []byte) []string {
	text := html.UnescapeString(string(body))

	type match struct {
		pos int
		id  string
	}
	var matches []match
	find := func(s string, pos func(loc []int) int) {
		for _, re := range linkPatterns {
			for _, loc := range re.FindAllStringSubmatchIndex(s, -1) {
				matches = append(matches, match{pos: pos(loc), id: s[loc[2]:loc[3]]})
			}
		}
	}

	find(text, func(loc []int) int { return loc[0] })
	for _, loc := range encodedPattern.FindAllStringIndex(text, -1) {
		decoded, err := url.QueryUnescape(text[loc[0]:loc[1]])
		if err != nil {
			continue
		}
		find(decoded, func([]int) int { return loc[0] })
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })

	seen := make(map[string]bool, len(matches))
	var ids []string
	for _, m := range matches {
		if !seen[m.id] {
			seen[m.id] = true
			ids = append(ids, m.id)
		}
	}
	return ids
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases title and replaces runs of other characters with hyphens.
func Slug(title string) string {
	s := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if len(s) > 80 {
		s = strings.TrimRight(s[:80], "-")
	}
	if s == "" {
		return "untitled"
	}
	return s
}
