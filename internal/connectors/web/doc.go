// Package web syncs web pages starting from seed URLs.
//
// Pages are fetched over HTTP with a per-source rate limit and retried on
// transient failures. HTML pages are converted to Markdown or text and their
// same-host links are followed up to the configured depth.
package web
