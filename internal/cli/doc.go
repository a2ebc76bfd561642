// Package cli wires together the Cobra command tree for the pagefetch binary.
//
// It defines the root command and its subcommands (fetch, config, cache,
// version), binds flags, reads configuration, builds the fetcher and
// returns deterministic exit codes.
package cli
