// Package configs embeds the example configuration written by
// `litsearch init`.
package configs

import _ "embed"

// ExampleConfig is a fully commented litsearch.yaml listing every key with
// its default.
//
//go:embed litsearch.example.yaml
var ExampleConfig string
