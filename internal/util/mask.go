package util

import "strings"

// MaskEmail keeps the first character of the local part and of the first domain label.
// "octocat@github.com" becomes "o…@g….com".
func MaskEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	at := strings.IndexByte(s, '@')
	if at <= 0 {
		return MaskSecret(s)
	}
	user, domain := s[:at], s[at+1:]
	if len(user) > 1 {
		user = user[:1] + "…"
	}
	labels := strings.Split(domain, ".")
	if len(labels) > 0 && len(labels[0]) > 1 {
		labels[0] = labels[0][:1] + "…"
	}
	return user + "@" + strings.Join(labels, ".")
}

// MaskSecret reveals at most the first and last character of s.
func MaskSecret(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 3:
		return "***"
	default:
		return s[:1] + "…" + s[len(s)-1:]
	}
}
