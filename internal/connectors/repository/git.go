package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// tokenEnv carries the HTTPS token to the credential helper.
const tokenEnv = "SERCHA_SYNC_GIT_TOKEN"

// credentialHelper answers git's credential prompt from tokenEnv.
const credentialHelper = `credential.helper=!f() { echo "username=x-access-token"; echo "password=$` + tokenEnv + `"; }; f`

// Runner runs git commands.
type Runner interface {
	// Run executes git with args in dir, with env appended to the process
	// environment, and returns the combined output.
	Run(ctx context.Context, dir string, env []string, args ...string) ([]byte, error)
}

// ExecRunner implements Runner by shelling out to the git command.
type ExecRunner struct{}

// Run executes git and returns a *GitError on failure.
func (ExecRunner) Run(ctx context.Context, dir string, env []string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	cmd.Env = append(cmd.Env, env...)
	// Helpers spawned by git may keep the output pipe open after a kill.
	cmd.WaitDelay = 5 * time.Second

	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, &GitError{Args: redactArgs(args), Output: strings.TrimSpace(string(out)), Err: err}
	}
	return out, nil
}

// GitError is a failed git invocation.
type GitError struct {
	Args   []string
	Output string
	Err    error
}

func (e *GitError) Error() string {
	return fmt.Sprintf("git %s: %v: %s", strings.Join(e.Args, " "), e.Err, e.Output)
}

func (e *GitError) Unwrap() error {
	return e.Err
}

func redactArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if strings.HasPrefix(a, "credential.helper=") {
			a = "credential.helper=<redacted>"
		}
		out[i] = a
	}
	return out
}

// cloneArgs builds a shallow single-branch clone of url into dest.
// With a token, a credential helper is configured for HTTPS remotes.
func cloneArgs(url, branch, dest string, withToken bool) []string {
	var args []string
	if withToken {
		args = append(args, "-c", credentialHelper)
	}
	return append(args,
		"clone",
		"--depth", "1",
		"--single-branch",
		"--no-tags",
		"--branch", branch,
		"--", url, dest,
	)
}

// classifyGitError maps git's output onto the sync error taxonomy.
func classifyGitError(err error) error {
	var gitErr *GitError
	if !errors.As(err, &gitErr) {
		return err
	}

	out := strings.ToLower(gitErr.Output)
	switch {
	case containsAny(out,
		"authentication failed",
		"could not read username",
		"could not read password",
		"invalid username or password",
		"permission denied",
		"the requested url returned error: 401",
		"the requested url returned error: 403"):
		return fmt.Errorf("%w: %w", domain.ErrAuthentication, err)
	case containsAny(out,
		"could not resolve host",
		"connection reset",
		"connection timed out",
		"operation timed out",
		"early eof",
		"the remote end hung up unexpectedly",
		"the requested url returned error: 429",
		"the requested url returned error: 5"):
		return fmt.Errorf("%w: %w", domain.ErrTransientNetwork, err)
	default:
		// Missing repositories and branches land here.
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
