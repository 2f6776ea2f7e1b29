// Package services implements the driving port interfaces.
// Services contain the sync engine: the orchestrator, the link-following
// crawler and the scheduler. They reach the outside world only through
// driven ports, so every adapter is injected.
package services
