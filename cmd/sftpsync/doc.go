// Package main hosts the sftpsync CLI.
//
// Invoked without a subcommand it performs one sync pass: download from the
// remote outbound directory, upload and triage the local export directory,
// then alert on newly quarantined files. The subcommands inspect
// configuration, check connectivity, list the quarantine, show run history
// and send a test notification.
//
// Keep this package thin. Behaviour lives in the internal packages; commands
// here resolve configuration and render results.
package main
