// Package configs provides the embedded project configuration template
// for scoutmcp. The template is embedded at build time so `scoutmcp
// config init` works identically for source builds and binary releases.
package configs

import _ "embed"

// ProjectConfigTemplate is written to .scoutmcp.yaml by `scoutmcp config init`.
// It documents every setting with its default value commented out.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
