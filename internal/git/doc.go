// Package git provides the repository operations behind secret synchronization.
//
// It wraps go-git and provides a Go-friendly interface for:
//   - Opening or initializing the secrets working directory (Open, Init, OpenStorage)
//   - Detecting working tree changes (Status)
//   - Committing every change with the tool identity (CommitAll)
//   - Replaying local commits onto the fetched remote tip (Rebase)
//   - Fetching from and pushing to the "origin" remote (Remote)
//
// Only one remote ("origin") and one branch ("main") exist; the local and remote
// branch names are always identical.
package git
