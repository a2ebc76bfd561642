// Package cache provides the URL-keyed page cache used by the fetcher.
//
// Each record stores the page source, the request method, the cookies and
// the user agent the browser used, together with the time it was written.
// A record older than the TTL (one hour by default) is expired; expired
// records are removed lazily when their URL is looked up, or all at once
// by [Store.Purge].
//
// Two backends are available. [JSONStore] keeps the whole table in one
// indented JSON file in the OS temp dir and rewrites it on every change.
// [SQLiteStore] keeps the same table in a SQLite database. Neither guards
// against concurrent writers in separate processes.
package cache
