package web

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"path"
	"regexp"
	"strings"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// pageExtensions are replaced by the export extension.
var pageExtensions = map[string]bool{
	".html": true, ".htm": true, ".xhtml": true, ".php": true, ".asp": true, ".aspx": true, ".jsp": true,
}

// RelativePath maps a URL to host/path[-queryhash].ext. Directory URLs map to
// "index". When keepExt is set the URL's own extension is kept if it has one.
func RelativePath(u *url.URL, ext string, keepExt bool) string {
	host := sanitise(strings.ToLower(u.Host))

	p := path.Clean("/" + u.Path)
	dir, base := path.Split(p)
	if strings.HasSuffix(u.Path, "/") || base == "" {
		dir, base = p+"/", "index"
		if p == "/" {
			dir = "/"
		}
	}

	var segs []string
	for _, s := range strings.Split(strings.Trim(dir, "/"), "/") {
		if s = sanitise(s); s != "" && s != "." && s != ".." {
			segs = append(segs, s)
		}
	}

	name := sanitise(base)
	switch cur := path.Ext(name); {
	case pageExtensions[strings.ToLower(cur)]:
		name = strings.TrimSuffix(name, cur)
	case cur != "" && keepExt:
		ext = ""
	}
	if name == "" || name == "." || name == ".." {
		name = "index"
	}
	if u.RawQuery != "" {
		sum := sha256.Sum256([]byte(u.RawQuery))
		name += "-" + hex.EncodeToString(sum[:])[:8]
	}

	parts := append([]string{host}, segs...)
	return path.Join(append(parts, name+ext)...)
}

func sanitise(s string) string {
	if decoded, err := url.PathUnescape(s); err == nil {
		s = decoded
	}
	return strings.Trim(unsafeChars.ReplaceAllString(s, "_"), "_")
}
