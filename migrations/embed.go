// Package migrations holds the versioned SQL schema of the tip bot: users and their
// deposit accounts, the Telegram chat member directory and the settlement queue.
package migrations

import "embed"

// FS holds the up and down migration files, read by golang-migrate's iofs source.
//
//go:embed *.sql
var FS embed.FS
