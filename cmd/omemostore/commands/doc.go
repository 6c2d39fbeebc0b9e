// Package commands defines the omemostore CLI, a maintenance tool for the
// OMEMO key-material stores of one or more accounts.
//
// # Commands
//
//   - show           Print an account's identity, pre-keys and devices
//   - devices        List the devices stored for an account's contacts
//   - stats          Summarize every account below the root
//   - migrate        Rewrite an account's record files in the configured format
//   - remove-device  Forget one device, or every device, of a contact
//   - reset          Delete all key material of an account
//   - config         Write or print the configuration file
//
// # Implementation
//
// The root command loads the yaml configuration, overlays the flags that were
// set, and builds an app.Wire before any subcommand runs, so handlers only
// open the stores they need. Account stores are locked while open; a running
// client holding the account makes the commands fail with store.ErrLocked.
package commands
