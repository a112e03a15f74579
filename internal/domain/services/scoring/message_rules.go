package scoring

import "dhankavach/internal/domain/services/extract"

// Message signal labels
const (
	LabelAuthorityImpersonation = "authority_impersonation"
	LabelKYCPretext             = "kyc_pretext"
	LabelSensitiveInfoRequest   = "sensitive_info_request"
	LabelThreats                = "threats"
	LabelPrizeLottery           = "prize_lottery"
	LabelMoneyRequest           = "money_request"
	LabelInvestmentBait         = "investment_bait"
	LabelRemoteAccess           = "remote_access"
	LabelBrandUnofficialLink    = "brand_with_unofficial_link"
	LabelBrandPersonalNumber    = "brand_with_personal_number"
)

const (
	brandUnofficialLinkWeight = 3
	brandPersonalNumberWeight = 2
)

var messageRulesEN = []Rule{
	{ID: "msg-en-urgency", Label: LabelUrgency, Category: "pressure", Language: LanguageEnglish, Weight: 2,
		Keywords: []string{"urgent", "immediately", "today only", "act now", "last chance", "expires today", "asap", "right away"},
		Patterns: []string{`\bwithin\s+\d+\s*(?:hours?|hrs?|minutes?|mins?)\b`}},
	{ID: "msg-en-authority", Label: LabelAuthorityImpersonation, Category: "impersonation", Language: LanguageEnglish, Weight: 2,
		Keywords: []string{"bank officer", "bank manager", "rbi officer", "customer care", "police", "cyber cell", "income tax department", "customs department", "trai", "cbi"}},
	{ID: "msg-en-kyc", Label: LabelKYCPretext, Category: "pretext", Language: LanguageEnglish, Weight: 3,
		Keywords: []string{"kyc", "re-kyc", "update your pan", "pan card", "aadhaar", "verify your account", "account verification"}},
	{ID: "msg-en-sensitive", Label: LabelSensitiveInfoRequest, Category: "credential_theft", Language: LanguageEnglish, Weight: 4,
		Keywords: []string{"verification code", "share the code", "card number"},
		Patterns: []string{`\b(?:otp|pin|cvv|mpin|upi pin|password)\b`}},
	{ID: "msg-en-threats", Label: LabelThreats, Category: "pressure", Language: LanguageEnglish, Weight: 3,
		Keywords: []string{"blocked", "suspended", "deactivated", "legal action", "arrest", "arrested", "penalty", "frozen", "will be closed", "disconnected"}},
	{ID: "msg-en-prize", Label: LabelPrizeLottery, Category: "prize", Language: LanguageEnglish, Weight: 3,
		Keywords: []string{"lottery", "you have won", "you won", "congratulations", "prize", "lucky draw", "winner", "kbc", "gift card"}},
	{ID: "msg-en-money", Label: LabelMoneyRequest, Category: "advance_fee", Language: LanguageEnglish, Weight: 3,
		Keywords: []string{"send money", "transfer the amount", "pay a fee", "processing fee", "registration fee", "refundable deposit", "pay now", "pay rs"}},
	{ID: "msg-en-investment", Label: LabelInvestmentBait, Category: "too_good_to_be_true", Language: LanguageEnglish, Weight: 4,
		Keywords: []string{"double your money", "guaranteed return", "guaranteed returns", "guaranteed profit", "trading tips", "high returns", "daily profit", "crypto"}},
	{ID: "msg-en-remote", Label: LabelRemoteAccess, Category: "device_takeover", Language: LanguageEnglish, Weight: 4,
		Keywords: []string{"anydesk", "teamviewer", "quicksupport", "quick support", "screen share", "screen sharing", "install this app"},
		Patterns: []string{`\S+\.apk\b`}},
}

var messageRulesHI = []Rule{
	{ID: "msg-hi-urgency", Label: LabelUrgency, Category: "pressure", Language: LanguageHindi, Weight: 2,
		Keywords: []string{"तुरंत", "जल्दी", "अभी", "आज ही", "24 घंटे"}},
	{ID: "msg-hi-authority", Label: LabelAuthorityImpersonation, Category: "impersonation", Language: LanguageHindi, Weight: 2,
		Keywords: []string{"बैंक अधिकारी", "बैंक मैनेजर", "पुलिस", "आयकर विभाग", "साइबर सेल"}},
	{ID: "msg-hi-kyc", Label: LabelKYCPretext, Category: "pretext", Language: LanguageHindi, Weight: 3,
		Keywords: []string{"केवाईसी", "आधार", "पैन कार्ड", "खाता सत्यापन"}},
	{ID: "msg-hi-sensitive", Label: LabelSensitiveInfoRequest, Category: "credential_theft", Language: LanguageHindi, Weight: 4,
		Keywords: []string{"ओटीपी", "पिन", "पासवर्ड", "सीवीवी"}},
	{ID: "msg-hi-threats", Label: LabelThreats, Category: "pressure", Language: LanguageHindi, Weight: 3,
		Keywords: []string{"ब्लॉक", "बंद हो जाएगा", "बंद कर दिया जाएगा", "गिरफ्तार", "जुर्माना", "कानूनी कार्रवाई"}},
	{ID: "msg-hi-prize", Label: LabelPrizeLottery, Category: "prize", Language: LanguageHindi, Weight: 3,
		Keywords: []string{"लॉटरी", "इनाम", "जीता", "बधाई", "पुरस्कार"}},
	{ID: "msg-hi-money", Label: LabelMoneyRequest, Category: "advance_fee", Language: LanguageHindi, Weight: 3,
		Keywords: []string{"पैसे भेजें", "पैसे भेजो", "शुल्क", "फीस"}},
	{ID: "msg-hi-investment", Label: LabelInvestmentBait, Category: "too_good_to_be_true", Language: LanguageHindi, Weight: 4,
		Keywords: []string{"पैसे दोगुने", "दोगुना", "गारंटी रिटर्न", "निवेश"}},
}

// urlReasonWeights scores each URL risk reason once per message
var urlReasonWeights = map[string]int{
	extract.ReasonShortened:          3,
	extract.ReasonIPHost:             3,
	extract.ReasonSuspiciousTLD:      2,
	extract.ReasonBrandImpersonation: 4,
	extract.ReasonInsecureSensitive:  2,
	extract.ReasonExcessiveDepth:     1,
	extract.ReasonUnusualPort:        1,
	extract.ReasonSuspiciousLabel:    2,
	extract.ReasonMalformed:          1,
}

var messageTable = mustRuleTable(messageRulesEN, messageRulesHI)
