package scoring

// Transaction signal labels
const (
	LabelFamilyRecipient     = "family_recipient"
	LabelUnknownRecipient    = "unknown_recipient"
	LabelPhoneRecipient      = "phone_recipient"
	LabelSuspiciousUPIHandle = "suspicious_upi_handle"
	LabelHighAmount          = "high_amount"
	LabelVeryHighAmount      = "very_high_amount"
	LabelInvestmentPurpose   = "investment_purpose"
	LabelPrizePurpose        = "prize_purpose"
	LabelUrgencyPurpose      = "urgency_purpose"
	LabelKYCPurpose          = "kyc_purpose"
	LabelFeePurpose          = "fee_purpose"
	LabelJobPurpose          = "job_purpose"
	LabelRefundPurpose       = "refund_purpose"
	LabelOTPPurpose          = "otp_purpose"
	LabelFlaggedKeywordInTxn = "purpose_matches_flagged_keyword"
)

const (
	unknownRecipientWeight   = 1
	phoneRecipientWeight     = 2
	suspiciousHandleWeight   = 2
	highAmountWeight         = 2
	veryHighAmountWeight     = 4
	veryHighAmountMultiplier = 5
	flaggedKeywordWeight     = 3
)

// suspiciousHandleWords in the local part of a UPI id rarely belong to a person
var suspiciousHandleWords = []string{"luck", "prize", "winner", "cash", "earn", "profit", "reward", "lottery", "loan", "refund", "offer"}

var transactionRulesEN = []Rule{
	{ID: "txn-en-investment", Label: LabelInvestmentPurpose, Category: "investment", Language: LanguageEnglish, Weight: 4,
		Keywords: []string{"investment", "invest", "trading", "crypto", "bitcoin", "stock tips", "forex"}},
	{ID: "txn-en-prize", Label: LabelPrizePurpose, Category: "prize", Language: LanguageEnglish, Weight: 5,
		Keywords: []string{"lottery", "prize", "lucky draw", "you won", "winning", "claim reward", "gift"}},
	{ID: "txn-en-urgency", Label: LabelUrgencyPurpose, Category: "pressure", Language: LanguageEnglish, Weight: 3,
		Keywords: []string{"urgent", "urgently", "immediately", "asap", "right now", "emergency"}},
	{ID: "txn-en-kyc", Label: LabelKYCPurpose, Category: "pretext", Language: LanguageEnglish, Weight: 3,
		Keywords: []string{"kyc", "account verification", "verify account", "unblock", "reactivate"}},
	{ID: "txn-en-fee", Label: LabelFeePurpose, Category: "advance_fee", Language: LanguageEnglish, Weight: 4,
		Keywords: []string{"processing fee", "registration fee", "advance fee", "clearance fee", "release fee", "joining fee", "customs", "gst charges", "tax charges", "file charge"}},
	{ID: "txn-en-guaranteed", Label: LabelGuaranteedReturn, Category: "too_good_to_be_true", Language: LanguageEnglish, Weight: 5,
		Keywords: []string{"guaranteed return", "guaranteed returns", "assured return", "double your money", "double money", "2x"}},
	{ID: "txn-en-job", Label: LabelJobPurpose, Category: "job", Language: LanguageEnglish, Weight: 3,
		Keywords: []string{"job", "work from home", "part time", "online task", "task payment", "like and earn"}},
	{ID: "txn-en-refund", Label: LabelRefundPurpose, Category: "refund", Language: LanguageEnglish, Weight: 3,
		Keywords: []string{"refund", "cashback", "reversal", "wrong transfer"}},
	{ID: "txn-en-otp", Label: LabelOTPPurpose, Category: "credential_theft", Language: LanguageEnglish, Weight: 5,
		Patterns: []string{`\b(?:otp|pin|cvv|mpin)\b`}},
}

var transactionRulesHI = []Rule{
	{ID: "txn-hi-investment", Label: LabelInvestmentPurpose, Category: "investment", Language: LanguageHindi, Weight: 4,
		Keywords: []string{"निवेश", "ट्रेडिंग", "क्रिप्टो"}},
	{ID: "txn-hi-prize", Label: LabelPrizePurpose, Category: "prize", Language: LanguageHindi, Weight: 5,
		Keywords: []string{"लॉटरी", "इनाम", "जीता"}},
	{ID: "txn-hi-urgency", Label: LabelUrgencyPurpose, Category: "pressure", Language: LanguageHindi, Weight: 3,
		Keywords: []string{"तुरंत", "जल्दी"}},
	{ID: "txn-hi-kyc", Label: LabelKYCPurpose, Category: "pretext", Language: LanguageHindi, Weight: 3,
		Keywords: []string{"ब्लॉक", "केवाईसी"}},
	{ID: "txn-hi-fee", Label: LabelFeePurpose, Category: "advance_fee", Language: LanguageHindi, Weight: 4,
		Keywords: []string{"प्रोसेसिंग फीस", "प्रोसेसिंग शुल्क"}},
	{ID: "txn-hi-guaranteed", Label: LabelGuaranteedReturn, Category: "too_good_to_be_true", Language: LanguageHindi, Weight: 5,
		Keywords: []string{"पैसे दोगुना", "पैसे दोगुने", "गारंटी रिटर्न"}},
	{ID: "txn-hi-otp", Label: LabelOTPPurpose, Category: "credential_theft", Language: LanguageHindi, Weight: 5,
		Keywords: []string{"ओटीपी", "पिन"}},
}

var transactionTable = mustRuleTable(transactionRulesEN, transactionRulesHI)
