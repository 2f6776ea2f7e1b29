// Package auth provides driven.TokenProvider implementations and the
// resolver that maps credential names to them.
//
// Tokens are supplied from configuration, the environment or a file.
// No OAuth flows or token refresh happen here.
package auth
