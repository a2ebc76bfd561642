// Pagefetch fetches pages that need JavaScript or sit behind Cloudflare's
// "Just a moment..." challenge, using a real Chromium-family browser.
//
// Responses are cached by URL for an hour so repeated lookups of the same
// page skip the browser entirely.
//
// Usage:
//
//	pagefetch fetch https://example.com/anime            # print page source
//	pagefetch fetch -p q=naruto https://example.com/search  # add query params
//	pagefetch fetch --format json https://example.com    # source, cookies, user agent
//	pagefetch cache show                                 # cache statistics
//	pagefetch cache purge                                # drop expired entries
//	pagefetch config set browser chromium                # pick the browser
package main
