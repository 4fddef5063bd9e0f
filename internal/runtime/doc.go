// Package runtime provides the execution context for crypta commands.
//
// It bundles the loaded configuration, the logger and the cancellation
// context, and builds the secret store and sync engine from them.
package runtime
