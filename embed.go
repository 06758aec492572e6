package website

import "embed"

// EmbeddedAssets contains the assets shipped in the binary: site.js and
// site.css.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
