// Package appfs holds the files embedded into the binaries.
package appfs

import "embed"

// templates are listed file by file: a directory pattern skips the "_" partials.
//go:embed migrations templates/email/*
var FS embed.FS
