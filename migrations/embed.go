package migrations

import "embed"

// FS embeds all SQL migration files into the binary so the server and
// the export CLI run standalone without external migration files.
//
//go:embed *.sql
var FS embed.FS
