// Package openapi embeds the OpenAPI description of the Footsteps API.
// It is imported by main to serve the document at /openapi.yaml.
package openapi

import _ "embed"

// Document contains the raw bytes of openapi.yaml, embedded at compile time.
//
//go:embed openapi.yaml
var Document []byte
