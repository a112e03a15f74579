package extract

import (
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"

	"dhankavach/internal/domain/models"
)

// Normalize returns the canonical id of raw for the given kind.
// Every branch is idempotent: Normalize(k, Normalize(k, x)) == Normalize(k, x).
func Normalize(kind models.EntityKind, raw string) string {
	switch kind {
	case models.EntityKindPhone:
		return NormalizePhone(raw)
	case models.EntityKindUPI:
		return NormalizeUPI(raw)
	case models.EntityKindURL:
		return NormalizeURL(raw)
	case models.EntityKindBankName:
		return NormalizeBrand(raw)
	case models.EntityKindKeyword:
		return strings.ToLower(strings.Join(strings.Fields(raw), " "))
	default:
		return strings.ToLower(strings.TrimSpace(raw))
	}
}

// NormalizePhone strips separators and the +91 / 0 trunk prefix, leaving 10 digits
// for Indian numbers. Other inputs keep only their digits.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		return digits[2:]
	case len(digits) == 11 && strings.HasPrefix(digits, "0"):
		return digits[1:]
	}
	return digits
}

// IsIndianMobile reports whether a normalized phone is a 10-digit mobile number
func IsIndianMobile(phone string) bool {
	if len(phone) != 10 || phone[0] < '6' || phone[0] > '9' {
		return false
	}
	for i := 0; i < len(phone); i++ {
		if phone[i] < '0' || phone[i] > '9' {
			return false
		}
	}
	return true
}

// NormalizeUPI lowercases and trims a UPI handle
func NormalizeUPI(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// NormalizeURL drops the scheme, www prefix, default ports, fragment and a bare
// root path, and lowercases the host, so http/https and www variants collide.
func NormalizeURL(raw string) string {
	s := strings.TrimRight(strings.TrimSpace(raw), trailingPunct)
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		s = "http://" + s
	}

	u, err := url.Parse(s)
	if err != nil || u.Hostname() == "" {
		return strings.ToLower(strings.TrimSpace(raw))
	}

	host := trimWWW(strings.ToLower(u.Hostname()))
	if port := u.Port(); port != "" && port != "80" && port != "443" {
		host += ":" + port
	}

	path := u.EscapedPath()
	if path == "/" {
		path = ""
	}

	out := host + path
	if u.RawQuery != "" {
		out += "?" + u.RawQuery
	}
	return out
}

// trimWWW removes every leading "www." label, so the result never starts with one
func trimWWW(host string) string {
	for strings.HasPrefix(host, "www.") && len(host) > len("www.") {
		host = host[len("www."):]
	}
	return host
}

// NormalizeBrand maps a brand alias to its canonical key
func NormalizeBrand(raw string) string {
	key := strings.ToLower(strings.Join(strings.Fields(norm.NFC.String(raw)), " "))
	if b, ok := brandByAlias[key]; ok {
		return b.Key
	}
	return key
}

// ParseRecipient classifies a payee identifier typed by the user.
// Returns false when it is neither a phone number nor a UPI handle.
func ParseRecipient(raw string) (models.Entity, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return models.Entity{}, false
	}
	if loc := upiRegex.FindStringIndex(trimmed); loc != nil && loc[0] == 0 && loc[1] == len(trimmed) {
		return models.Entity{ID: NormalizeUPI(trimmed), Kind: models.EntityKindUPI, Raw: raw}, true
	}
	if phone := NormalizePhone(trimmed); IsIndianMobile(phone) && onlyPhoneChars(trimmed) {
		return models.Entity{ID: phone, Kind: models.EntityKindPhone, Raw: raw}, true
	}
	return models.Entity{}, false
}

func onlyPhoneChars(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '+', r == '-', r == ' ', r == '(', r == ')':
		default:
			return false
		}
	}
	return true
}
