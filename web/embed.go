package web

import "embed"

// FS holds the bundled chat client. It is served when no static directory
// is configured.
//
//go:embed static/*
var FS embed.FS
