package extract

import (
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Brand is a bank, wallet or marketplace name scammers commonly impersonate
type Brand struct {
	Key     string   // canonical id stored for BANK_NAME entities
	Name    string   // display name
	Aliases []string // how the brand appears in text, Latin or Devanagari
	Tokens  []string // how the brand appears inside hostnames
	Domains []string // official domains, subdomains included
}

// Brands is the known-brand list used for extraction and impersonation checks
var Brands = []Brand{
	{Key: "sbi", Name: "State Bank of India", Aliases: []string{"sbi", "state bank of india", "state bank", "yono", "एसबीआई", "स्टेट बैंक"}, Tokens: []string{"sbi", "statebank", "yono"}, Domains: []string{"onlinesbi.com", "onlinesbi.sbi", "sbi.co.in", "sbi.bank.in"}},
	{Key: "hdfc", Name: "HDFC Bank", Aliases: []string{"hdfc", "hdfc bank", "एचडीएफसी"}, Tokens: []string{"hdfc"}, Domains: []string{"hdfcbank.com", "hdfc.com"}},
	{Key: "icici", Name: "ICICI Bank", Aliases: []string{"icici", "icici bank", "आईसीआईसीआई"}, Tokens: []string{"icici"}, Domains: []string{"icicibank.com"}},
	{Key: "axis", Name: "Axis Bank", Aliases: []string{"axis bank", "एक्सिस बैंक"}, Tokens: []string{"axisbank"}, Domains: []string{"axisbank.com"}},
	{Key: "kotak", Name: "Kotak Mahindra Bank", Aliases: []string{"kotak", "kotak mahindra"}, Tokens: []string{"kotak"}, Domains: []string{"kotak.com"}},
	{Key: "pnb", Name: "Punjab National Bank", Aliases: []string{"pnb", "punjab national bank"}, Tokens: []string{"pnbindia"}, Domains: []string{"pnbindia.in", "pnb.bank.in"}},
	{Key: "bob", Name: "Bank of Baroda", Aliases: []string{"bank of baroda"}, Tokens: []string{"bankofbaroda"}, Domains: []string{"bankofbaroda.in"}},
	{Key: "rbi", Name: "Reserve Bank of India", Aliases: []string{"rbi", "reserve bank of india", "reserve bank", "आरबीआई", "रिज़र्व बैंक"}, Tokens: []string{"rbi", "reservebank"}, Domains: []string{"rbi.org.in"}},
	{Key: "npci", Name: "NPCI", Aliases: []string{"npci"}, Tokens: []string{"npci"}, Domains: []string{"npci.org.in"}},
	{Key: "paytm", Name: "Paytm", Aliases: []string{"paytm", "पेटीएम"}, Tokens: []string{"paytm"}, Domains: []string{"paytm.com", "paytmbank.com"}},
	{Key: "phonepe", Name: "PhonePe", Aliases: []string{"phonepe", "phone pe", "फोनपे"}, Tokens: []string{"phonepe"}, Domains: []string{"phonepe.com"}},
	{Key: "gpay", Name: "Google Pay", Aliases: []string{"gpay", "google pay"}, Tokens: []string{"gpay", "googlepay"}, Domains: []string{"pay.google.com"}},
	{Key: "amazon", Name: "Amazon", Aliases: []string{"amazon", "अमेज़न"}, Tokens: []string{"amazon"}, Domains: []string{"amazon.in", "amazon.com"}},
	{Key: "flipkart", Name: "Flipkart", Aliases: []string{"flipkart", "फ्लिपकार्ट"}, Tokens: []string{"flipkart"}, Domains: []string{"flipkart.com"}},
	{Key: "bajaj", Name: "Bajaj Finserv", Aliases: []string{"bajaj finserv", "bajaj finance"}, Tokens: []string{"bajajfinserv", "bajajfinance"}, Domains: []string{"bajajfinserv.in"}},
	{Key: "lic", Name: "LIC", Aliases: []string{"lic of india", "life insurance corporation"}, Tokens: []string{"licindia"}, Domains: []string{"licindia.in"}},
}

var (
	brandByKey   = map[string]*Brand{}
	brandByAlias = map[string]*Brand{}
	brandRegex   *regexp.Regexp
	// Devanagari aliases: RE2 word boundaries are ASCII only
	brandScriptAliases []string
)

func init() {
	var latin []string
	for i := range Brands {
		b := &Brands[i]
		brandByKey[b.Key] = b
		brandByAlias[b.Key] = b
		for _, a := range b.Aliases {
			// input text is NFC-normalized, so aliases must be too
			a = norm.NFC.String(a)
			brandByAlias[strings.ToLower(a)] = b
			if isASCII(a) {
				latin = append(latin, regexp.QuoteMeta(a))
			} else {
				brandScriptAliases = append(brandScriptAliases, a)
			}
		}
	}
	// longest alias first so "state bank of india" wins over "state bank"
	slices.SortStableFunc(latin, func(a, b string) int { return len(b) - len(a) })
	brandRegex = regexp.MustCompile(`(?i)\b(?:` + strings.Join(latin, "|") + `)\b`)
}

// BrandByKey returns the brand with the given canonical key
func BrandByKey(key string) (*Brand, bool) {
	b, ok := brandByKey[key]
	return b, ok
}

// IsOfficialHost reports whether host belongs to the brand's official domains
func (b *Brand) IsOfficialHost(host string) bool {
	for _, d := range b.Domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// matchesHost reports whether any hostname part starts or ends with a brand token
func (b *Brand) matchesHost(host string) bool {
	for _, label := range strings.FieldsFunc(host, func(r rune) bool { return r == '.' || r == '-' }) {
		for _, tok := range b.Tokens {
			if strings.HasPrefix(label, tok) || strings.HasSuffix(label, tok) {
				return true
			}
		}
	}
	return false
}

// OfficialBrandHost returns the brand whose official domain host belongs to
func OfficialBrandHost(host string) (*Brand, bool) {
	for i := range Brands {
		if Brands[i].IsOfficialHost(host) {
			return &Brands[i], true
		}
	}
	return nil, false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
