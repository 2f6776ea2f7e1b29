// Package docs synchronises Google Docs, Sheets and Slides through the
// Drive v3 API.
//
// Seeds are file IDs or document URLs. Each item is exported server-side in
// the requested format and, when a source crawls, the text rendering of the
// document is scanned for links to further documents of the suite.
package docs
