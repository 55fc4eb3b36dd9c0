// Package migrations embeds the storefront's SQL schema so goose can apply it
// at server start without a migrations directory on disk.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
