// Package web holds the HTML templates compiled into the binary. Static
// assets and uploads live on disk under web/static.
package web

import "embed"

//go:embed templates/*.html
var Templates embed.FS
