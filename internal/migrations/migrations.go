// Package migrations embeds the service's SQL schema migrations, applied at
// startup in lexical order.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
