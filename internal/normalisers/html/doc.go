// Package html converts HTML documents to plain text and Markdown.
// Scripts, styles and other non-content elements are dropped, whitespace is
// collapsed and entities are decoded. The parsed document also exposes its
// title, base URL and links.
package html
