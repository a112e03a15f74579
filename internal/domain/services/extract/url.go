package extract

import (
	"net"
	"net/url"
	"strings"
)

// URL risk reasons, reused as signal labels by the message scorer
const (
	ReasonShortened          = "shortened_url"
	ReasonIPHost             = "ip_address_url"
	ReasonSuspiciousTLD      = "suspicious_tld"
	ReasonBrandImpersonation = "brand_impersonation_url"
	ReasonInsecureSensitive  = "insecure_sensitive_url"
	ReasonExcessiveDepth     = "excessive_subdomains"
	ReasonUnusualPort        = "unusual_port"
	ReasonSuspiciousLabel    = "suspicious_subdomain"
	ReasonMalformed          = "malformed_url"
)

var shorteners = []string{
	"bit.ly", "tinyurl.com", "t.co", "goo.gl", "ow.ly", "cutt.ly", "rebrand.ly",
	"is.gd", "buff.ly", "bit.do", "tiny.cc", "j.mp", "shorturl.at", "rb.gy",
}

var suspiciousTLDs = map[string]bool{
	"xyz": true, "top": true, "work": true, "click": true, "loan": true, "win": true,
	"link": true, "gq": true, "ml": true, "cf": true, "tk": true, "ga": true,
}

var sensitiveHostWords = []string{"bank", "pay", "login", "secure", "kyc", "verify"}

var suspiciousLabelParts = []string{"-login", "login-", "-verify", "secure-", "-kyc", "kyc-", "-update", "update-", "-reward"}

// URLAnalysis is the offline risk assessment of one link
type URLAnalysis struct {
	Raw        string   `json:"raw"`
	Normalized string   `json:"normalized"`
	Host       string   `json:"host"`
	TLD        string   `json:"tld,omitempty"`
	HTTPS      bool     `json:"https"`
	Shortened  bool     `json:"shortened"`
	Official   bool     `json:"official"`            // host is an official brand domain
	LooksLike  string   `json:"looks_like,omitempty"` // brand key being impersonated
	Reasons    []string `json:"reasons,omitempty"`
}

// Suspicious reports whether any risk reason applies
func (a URLAnalysis) Suspicious() bool {
	return len(a.Reasons) > 0
}

// AnalyzeURL inspects a raw link without any network access
func AnalyzeURL(raw string) URLAnalysis {
	result := URLAnalysis{Raw: raw, Normalized: NormalizeURL(raw)}

	s := strings.TrimRight(strings.TrimSpace(raw), trailingPunct)
	lower := strings.ToLower(s)
	explicitScheme := strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
	if !explicitScheme {
		s = "https://" + s
	}

	parsed, err := url.Parse(s)
	if err != nil || parsed.Hostname() == "" {
		result.Reasons = append(result.Reasons, ReasonMalformed)
		return result
	}

	host := trimWWW(strings.ToLower(parsed.Hostname()))
	result.Host = host
	result.HTTPS = parsed.Scheme == "https"

	labels := strings.Split(host, ".")
	result.TLD = labels[len(labels)-1]

	if net.ParseIP(host) != nil {
		result.Reasons = append(result.Reasons, ReasonIPHost)
	}

	if port := parsed.Port(); port != "" && port != "80" && port != "443" {
		result.Reasons = append(result.Reasons, ReasonUnusualPort)
	}

	for _, sh := range shorteners {
		if host == sh {
			result.Shortened = true
			result.Reasons = append(result.Reasons, ReasonShortened)
			break
		}
	}

	if suspiciousTLDs[result.TLD] {
		result.Reasons = append(result.Reasons, ReasonSuspiciousTLD)
	}

	if b, ok := OfficialBrandHost(host); ok {
		result.Official = true
		result.LooksLike = b.Key
	} else {
		for i := range Brands {
			if Brands[i].matchesHost(host) {
				result.LooksLike = Brands[i].Key
				result.Reasons = append(result.Reasons, ReasonBrandImpersonation)
				break
			}
		}
	}

	if explicitScheme && !result.HTTPS && !result.Official && containsAny(host, sensitiveHostWords) {
		result.Reasons = append(result.Reasons, ReasonInsecureSensitive)
	}

	if len(labels) > 4 {
		result.Reasons = append(result.Reasons, ReasonExcessiveDepth)
	}

	if !result.Official && containsAny(host, suspiciousLabelParts) {
		result.Reasons = append(result.Reasons, ReasonSuspiciousLabel)
	}

	return result
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
