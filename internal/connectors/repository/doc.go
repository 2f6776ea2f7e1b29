// Package repository syncs files from a remote git repository.
//
// Each run takes a shallow, single-branch checkout into a scratch directory
// under the state directory, selects files with glob patterns and copies them
// verbatim. The scratch checkout is removed when the adapter is closed.
//
// Repositories hosted on github.com are checked through the GitHub API before
// cloning when a credential is configured, so a missing repository or branch is
// reported as a configuration error and a rejected token as an authentication
// error.
package repository
