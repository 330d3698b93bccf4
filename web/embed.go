package web

import _ "embed"

// RouteManifest embeds the console route table, tab labels and entity prefixes.
//
//go:embed routes.yaml
var RouteManifest []byte
