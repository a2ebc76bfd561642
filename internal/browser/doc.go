// Package browser drives a Chromium-family browser over the DevTools
// protocol using chromedp.
//
// It picks which browser to launch ([Select]), builds the allocator flags
// ([AllocatorOptions]), starts the browser or attaches to a running one
// ([Launch]) and waits out Cloudflare's interstitial "Just a moment..."
// page ([WaitForCloudflare]). The [Driver] interface is the seam the fetch
// package uses, so the request flow can be tested without a browser.
package browser
