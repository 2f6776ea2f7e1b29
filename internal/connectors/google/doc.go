// Package google provides shared infrastructure for Google API connectors.
//
// This package contains common utilities used by the document-suite adapter
// including:
//   - TokenSource adapter to bridge the TokenProvider port to oauth2.TokenSource
//   - Service factory for creating Drive API clients
//   - Error mapping from Google API errors onto the sync error taxonomy
//   - Rate limiting to respect Google API quotas
//
// # Usage
//
//	ts := google.NewTokenSource(ctx, tokenProvider)
//	svc, err := google.NewDriveService(ctx, ts)
//
// # OAuth2 Scopes
//
// Tokens must carry https://www.googleapis.com/auth/drive.readonly.
// Obtaining and refreshing them happens outside sercha-sync.
package google
