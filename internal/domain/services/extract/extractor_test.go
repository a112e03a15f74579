package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dhankavach/internal/domain/models"
	"dhankavach/pkg/logger"
)

func newTestExtractor() *Extractor {
	return NewExtractor(logger.NewNop())
}

func ids(entities []models.Entity, kind models.EntityKind) []string {
	var out []string
	for _, e := range entities {
		if e.Kind == kind {
			out = append(out, e.ID)
		}
	}
	return out
}

func TestExtractLoanDocument(t *testing.T) {
	doc := `GOLDEN LOANS - Personal Loan Offer
Get Rs 5,00,000 at 0% interest! No documentation required.
Pay processing fee of Rs 2,999 to UPI: GoldenLoan@ybl before approval.
Contact our manager on +91 87654-32109 or visit https://bit.ly/golden-loan.`

	entities := newTestExtractor().Extract(doc, nil)

	assert.Equal(t, []string{"goldenloan@ybl"}, ids(entities, models.EntityKindUPI))
	assert.Equal(t, []string{"8765432109"}, ids(entities, models.EntityKindPhone))
	assert.Equal(t, []string{"bit.ly/golden-loan"}, ids(entities, models.EntityKindURL))
}

func TestExtractPhoneVariantsCollide(t *testing.T) {
	text := "call 8765432109, +918765432109, 08765432109, 87654 32109 or +91-8765432109"
	entities := newTestExtractor().Extract(text, nil)
	assert.Equal(t, []string{"8765432109"}, ids(entities, models.EntityKindPhone))
}

func TestExtractIgnoresNonMobileNumbers(t *testing.T) {
	text := "Toll free 1800-425-3800, account 123456789012345, pin 560001"
	entities := newTestExtractor().Extract(text, nil)
	assert.Empty(t, ids(entities, models.EntityKindPhone))
}

func TestExtractSkipsEmailAddresses(t *testing.T) {
	text := "Mail support@example.com or pay refund.desk@okaxis"
	entities := newTestExtractor().Extract(text, nil)

	assert.Equal(t, []string{"refund.desk@okaxis"}, ids(entities, models.EntityKindUPI))
	assert.NotContains(t, ids(entities, models.EntityKindURL), "example.com")
}

func TestExtractURLsAndBrands(t *testing.T) {
	text := "Dear SBI customer, your YONO account is blocked. Update KYC at http://sbi-kyc-update.xyz/login now. Official site: https://www.onlinesbi.com/"
	entities := newTestExtractor().Extract(text, nil)

	assert.Equal(t, []string{"sbi-kyc-update.xyz/login", "onlinesbi.com"}, ids(entities, models.EntityKindURL))
	assert.Equal(t, []string{"sbi"}, ids(entities, models.EntityKindBankName))
}

func TestExtractDevanagariBrandAfterNFC(t *testing.T) {
	text := "आपका स्टेट बैंक खाता बंद हो जाएगा, 9876543210 पर कॉल करें"
	entities := newTestExtractor().Extract(text, nil)

	assert.Equal(t, []string{"sbi"}, ids(entities, models.EntityKindBankName))
	assert.Equal(t, []string{"9876543210"}, ids(entities, models.EntityKindPhone))
}

func TestExtractAttachments(t *testing.T) {
	pdfLike := []byte{0x25, 0x50, 0x44, 0x46, 0xff, 0xfe, 0x00}
	textual := []byte("Send fee to lucky.prize@paytm")

	entities := newTestExtractor().Extract("", [][]byte{pdfLike, textual, nil})

	assert.Equal(t, []string{"lucky.prize@paytm"}, ids(entities, models.EntityKindUPI))
	hashes := ids(entities, models.EntityKindDocHash)
	require.Len(t, hashes, 2)
	assert.Len(t, hashes[0], 64)
	assert.NotEqual(t, hashes[0], hashes[1])
}

func TestExtractUnparseableInputIsEmpty(t *testing.T) {
	e := newTestExtractor()
	assert.Empty(t, e.Extract("", nil))
	assert.Empty(t, e.Extract("\x00\x01 ??? ¯\\_(ツ)_/¯", nil))
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := map[models.EntityKind][]string{
		models.EntityKindPhone:    {"+91 87654-32109", "08765432109", "8765432109", "(987) 654-3210"},
		models.EntityKindUPI:      {" GoldenLoan@YBL ", "a.b-c@okhdfcbank"},
		models.EntityKindURL:      {"HTTPS://WWW.Example.COM/", "http://sbi-kyc.xyz:8080/a/b?x=1#frag", "bit.ly/abc.", "https://x.com:443/path/", "HTTP://WWW.WWW.a.com", "http://www.www.sbi-kyc-update.xyz/login"},
		models.EntityKindBankName: {"State Bank of India", "HDFC", "unknown brand"},
		models.EntityKindKeyword:  {"  Processing   FEE "},
	}
	for kind, values := range inputs {
		for _, raw := range values {
			once := Normalize(kind, raw)
			assert.Equal(t, once, Normalize(kind, once), "%s %q", kind, raw)
		}
	}
}

func TestNormalizeURLCollapsesVariants(t *testing.T) {
	want := "example.com/offer"
	for _, raw := range []string{"https://example.com/offer", "http://www.example.com/offer", "EXAMPLE.com/offer#top", "example.com:443/offer", "https://www.www.example.com/offer"} {
		assert.Equal(t, want, NormalizeURL(raw), raw)
	}
	assert.Equal(t, "example.com", AnalyzeURL("http://www.www.example.com/").Host)
}

func TestExtractedURLSurvivesRenormalizing(t *testing.T) {
	e := newTestExtractor()
	entities := e.Extract("Update KYC at http://www.www.sbi-kyc-update.xyz/login today", nil)

	urls := ids(entities, models.EntityKindURL)
	require.Equal(t, []string{"sbi-kyc-update.xyz/login"}, urls)
	assert.Equal(t, urls[0], Normalize(models.EntityKindURL, urls[0]))
}

func TestParseRecipient(t *testing.T) {
	e, ok := ParseRecipient("+91 87654 32109")
	require.True(t, ok)
	assert.Equal(t, models.Entity{ID: "8765432109", Kind: models.EntityKindPhone, Raw: "+91 87654 32109"}, e)

	e, ok = ParseRecipient("GoldenLoan@ybl")
	require.True(t, ok)
	assert.Equal(t, models.EntityKindUPI, e.Kind)
	assert.Equal(t, "goldenloan@ybl", e.ID)

	_, ok = ParseRecipient("Beti (Priya)")
	assert.False(t, ok)
	_, ok = ParseRecipient("")
	assert.False(t, ok)
}

func TestAnalyzeURL(t *testing.T) {
	tests := []struct {
		raw      string
		reasons  []string
		official bool
	}{
		{"https://bit.ly/3xYz", []string{ReasonShortened}, false},
		{"http://192.168.4.20/sbi", []string{ReasonIPHost}, false},
		{"http://sbi-kyc-update.xyz/login", []string{ReasonSuspiciousTLD, ReasonBrandImpersonation, ReasonInsecureSensitive, ReasonSuspiciousLabel}, false},
		{"https://www.onlinesbi.com/", nil, true},
		{"https://pay.google.com/about", nil, true},
		{"https://a.b.c.d.example.com", []string{ReasonExcessiveDepth}, false},
	}
	for _, tt := range tests {
		got := AnalyzeURL(tt.raw)
		assert.Equal(t, tt.reasons, got.Reasons, tt.raw)
		assert.Equal(t, tt.official, got.Official, tt.raw)
	}

	assert.Equal(t, "sbi", AnalyzeURL("http://sbi-kyc-update.xyz/login").LooksLike)
}
