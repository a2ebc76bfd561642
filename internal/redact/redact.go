package redact

import (
	"net/url"
	"regexp"
)

const placeholder = "[REDACTED]"

// sensitiveParam matches query parameter names that usually carry credentials.
var sensitiveParam = regexp.MustCompile(`(?i)^(.*[_-])?(api[_-]?key|apikey|key|secret|token|access[_-]?token|auth|password|passwd|pass|session|sig|signature|credential)$`)

// sensitiveCookies are cookies that grant access on their own.
var sensitiveCookies = []*regexp.Regexp{
	// Cloudflare clearance and bot-management cookies
	regexp.MustCompile(`^(cf_clearance|__cf_bm|__cflb|_cfuvid)$`),
	// Session identifiers
	regexp.MustCompile(`(?i)(sess|session|sid|auth|token|jwt)`),
}

// URL returns rawURL with the values of credential-like query parameters
// and any userinfo password replaced. Unparseable input is returned as is.
func URL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), placeholder)
		}
	}
	if u.RawQuery == "" {
		return u.String()
	}
	q := u.Query()
	changed := false
	for name, values := range q {
		if !sensitiveParam.MatchString(name) {
			continue
		}
		for i := range values {
			values[i] = placeholder
		}
		changed = true
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// IsSensitiveCookie reports whether the cookie name looks like a credential.
func IsSensitiveCookie(name string) bool {
	for _, pat := range sensitiveCookies {
		if pat.MatchString(name) {
			return true
		}
	}
	return false
}

// CookieValue masks value when name is a sensitive cookie.
func CookieValue(name, value string) string {
	if value == "" || !IsSensitiveCookie(name) {
		return value
	}
	return placeholder
}
