// Package redact masks credentials before they reach logs or JSON output.
//
// Query parameters whose names look like keys, tokens or passwords are
// replaced with [REDACTED], as are userinfo passwords. Cookie values are
// masked for Cloudflare clearance cookies and anything that looks like a
// session identifier, since either can be replayed to impersonate the
// browser that earned it.
package redact
