// Package normalisers holds content converters shared by source adapters.
//
// The html package renders HTML pages as plain text or Markdown and exposes
// page titles and links for crawling.
package normalisers
