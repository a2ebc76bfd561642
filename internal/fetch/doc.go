// Package fetch is the request helper: it returns a page's source after
// JavaScript has run and any Cloudflare challenge has cleared.
//
// A request first consults the cache. On a miss it launches a browser,
// navigates, waits out the challenge, captures the user agent, cookies and
// page source, closes the browser and stores the result. Failures are
// logged with a screenshot of the page for diagnosis; nothing is retried.
package fetch
