// Package file stores per-source manifests as JSON files, one file per
// source: <dir>/<source>.json.
package file
