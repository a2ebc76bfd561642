// Package output renders fetched pages for display or machine consumption.
//
// Two formats are supported:
//   - text: the page source as returned by the browser (default)
//   - json: the whole response: URL, method, source, cookies, user agent
//
// Use [GetWriter] to obtain a [Writer] for a format string and
// [WriteResponse] to send it to a file or stdout. The JSON writer can mask
// clearance and session cookie values.
package output
