// Package actions provides the business logic behind the crypta commands.
//
// Each action corresponds to a command (sync, set, get, init, etc.) and
// orchestrates the secret store, the git repository and the sync engine.
//
// Key patterns:
//   - Actions accept runtime.Context which provides Config, Splog and the external tools
//   - Actions report to the user through Splog and return errors unprinted
//   - Prompts are skipped when stdin is not a terminal or CRYPTA_NO_INTERACTIVE is set
package actions
