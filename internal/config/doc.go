// Package config loads and merges pagefetch configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (PAGEFETCH_BROWSER, PAGEFETCH_CACHE_TTL, etc.)
//  3. Config file ($XDG_CONFIG_HOME/pagefetch/config.json)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged [Config], [Save] to write the config file,
// and [SetField] to update a single dotted key such as "cache.ttlSeconds".
// Browser names are normalized to lower case; paths are kept verbatim.
package config
