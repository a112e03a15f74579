package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsPhrase(t *testing.T) {
	tests := []struct {
		text, phrase string
		want         bool
	}{
		{"share your pin now", "pin", true},
		{"spinning wheel", "pin", false},
		{"get 0% interest", "0% interest", true},
		{"get 10% interest", "0% interest", false},
		{"pay processing fee.", "processing fee", true},
		{"kyc-update", "kyc", true},
		{"premium due", "emi", false},
		{"मेरी बेटी को", "बेटी", true},
		{"", "pin", false},
		{"pin", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.text+"/"+tt.phrase, func(t *testing.T) {
			assert.Equal(t, tt.want, ContainsPhrase(tt.text, tt.phrase))
		})
	}
}

func TestCountPhrases(t *testing.T) {
	assert.Equal(t, 2, CountPhrases(FoldText("Loan AGREEMENT with EMI schedule"), []string{"agreement", "emi", "policy"}))
}
