package scoring

// Document signal labels
const (
	LabelZeroInterest       = "zero_interest"
	LabelGuaranteedReturn   = "guaranteed_return"
	LabelGuaranteedApproval = "guaranteed_approval"
	LabelNoDocumentation    = "no_documentation"
	LabelUpfrontFee         = "upfront_fee"
	LabelUrgency            = "urgency"
	LabelPrize              = "prize"
	LabelDoubleMoney        = "double_money"
	LabelSuspiciousLender   = "suspicious_lender_name"
	LabelMissingRegulator   = "missing_regulator_registration"
	LabelPersonalContact    = "personal_contact_number"
)

const (
	missingRegulatorWeight = 3
	personalContactWeight  = 2
)

var documentRulesEN = []Rule{
	{ID: "doc-en-zero-interest", Label: LabelZeroInterest, Category: "too_good_to_be_true", Language: LanguageEnglish, Weight: 4, Memorable: true,
		Keywords: []string{"0% interest", "0 % interest", "zero interest", "interest free", "interest-free", "no interest", "0% rate"}},
	{ID: "doc-en-guaranteed-return", Label: LabelGuaranteedReturn, Category: "too_good_to_be_true", Language: LanguageEnglish, Weight: 5, Memorable: true,
		Keywords: []string{"guaranteed return", "guaranteed returns", "assured return", "assured returns", "guaranteed profit", "risk-free return", "risk free return"}},
	{ID: "doc-en-guaranteed-approval", Label: LabelGuaranteedApproval, Category: "too_good_to_be_true", Language: LanguageEnglish, Weight: 3, Memorable: true,
		Keywords: []string{"guaranteed approval", "approval guaranteed", "100% approval", "instant approval", "pre-approved loan"}},
	{ID: "doc-en-no-documentation", Label: LabelNoDocumentation, Category: "bypass_checks", Language: LanguageEnglish, Weight: 4, Memorable: true,
		Keywords: []string{"no documentation", "no documents", "no document required", "no paperwork", "without documents", "no cibil", "no credit check", "no income proof"}},
	{ID: "doc-en-upfront-fee", Label: LabelUpfrontFee, Category: "advance_fee", Language: LanguageEnglish, Weight: 4, Memorable: true,
		Keywords: []string{"processing fee", "upfront fee", "registration fee", "advance fee", "file charge", "file charges", "pay before disbursal", "refundable deposit", "token amount"},
		Patterns: []string{`\bpay\s+(?:rs\.?|inr|₹)\s?[\d,]+\s+(?:upfront|in advance|before)`}},
	{ID: "doc-en-urgency", Label: LabelUrgency, Category: "pressure", Language: LanguageEnglish, Weight: 3,
		Keywords: []string{"limited time", "limited period", "offer valid till", "act now", "apply today", "urgent", "immediately", "hurry", "last date today"}},
	{ID: "doc-en-prize", Label: LabelPrize, Category: "prize", Language: LanguageEnglish, Weight: 3, Memorable: true,
		Keywords: []string{"lottery", "you have won", "lucky draw", "prize money", "jackpot"}},
	{ID: "doc-en-double-money", Label: LabelDoubleMoney, Category: "too_good_to_be_true", Language: LanguageEnglish, Weight: 5, Memorable: true,
		Keywords: []string{"double your money", "money doubles", "money double", "2x returns"}},
	{ID: "doc-en-lender-name", Label: LabelSuspiciousLender, Category: "regulator", Language: LanguageEnglish, Weight: 2, Memorable: true,
		Keywords: []string{"free money"},
		Patterns: []string{`\b(?:easy|instant|quick|lucky|golden|fast)\s?(?:loan|cash|money|finance|credit)s?\b`}},
}

var documentRulesHI = []Rule{
	{ID: "doc-hi-zero-interest", Label: LabelZeroInterest, Category: "too_good_to_be_true", Language: LanguageHindi, Weight: 4, Memorable: true,
		Keywords: []string{"शून्य ब्याज", "बिना ब्याज", "ब्याज मुक्त", "0% ब्याज"}},
	{ID: "doc-hi-guaranteed-return", Label: LabelGuaranteedReturn, Category: "too_good_to_be_true", Language: LanguageHindi, Weight: 5, Memorable: true,
		Keywords: []string{"गारंटीड रिटर्न", "गारंटी रिटर्न", "पक्का मुनाफा", "निश्चित लाभ"}},
	{ID: "doc-hi-guaranteed-approval", Label: LabelGuaranteedApproval, Category: "too_good_to_be_true", Language: LanguageHindi, Weight: 3, Memorable: true,
		Keywords: []string{"तुरंत मंजूरी", "गारंटीड लोन", "पक्की मंजूरी"}},
	{ID: "doc-hi-no-documentation", Label: LabelNoDocumentation, Category: "bypass_checks", Language: LanguageHindi, Weight: 4, Memorable: true,
		Keywords: []string{"बिना दस्तावेज", "बिना कागज", "बिना कागजात", "कोई दस्तावेज नहीं"}},
	{ID: "doc-hi-upfront-fee", Label: LabelUpfrontFee, Category: "advance_fee", Language: LanguageHindi, Weight: 4, Memorable: true,
		Keywords: []string{"प्रोसेसिंग फीस", "प्रोसेसिंग शुल्क", "अग्रिम शुल्क", "पंजीकरण शुल्क"}},
	{ID: "doc-hi-urgency", Label: LabelUrgency, Category: "pressure", Language: LanguageHindi, Weight: 3,
		Keywords: []string{"तुरंत", "जल्दी करें", "सीमित समय", "आज ही"}},
	{ID: "doc-hi-prize", Label: LabelPrize, Category: "prize", Language: LanguageHindi, Weight: 3, Memorable: true,
		Keywords: []string{"लॉटरी", "इनाम", "आपने जीता"}},
	{ID: "doc-hi-double-money", Label: LabelDoubleMoney, Category: "too_good_to_be_true", Language: LanguageHindi, Weight: 5, Memorable: true,
		Keywords: []string{"पैसे दोगुने", "पैसा दोगुना", "दोगुना"}},
}

// DocumentType is the inferred kind of a submitted document
type DocumentType string

const (
	DocumentTypeLoan       DocumentType = "loan"
	DocumentTypeInsurance  DocumentType = "insurance"
	DocumentTypeInvestment DocumentType = "investment"
	DocumentTypePrize      DocumentType = "prize"
	DocumentTypeGeneral    DocumentType = "general"
)

// documentTypeRules use Category as the document type. Earlier rules win ties.
var documentTypeRules = []Rule{
	{ID: "type-loan", Label: "type", Category: string(DocumentTypeLoan),
		Keywords: []string{"loan", "emi", "lender", "disbursal", "disbursement", "borrower", "लोन", "ऋण", "कर्ज"}},
	{ID: "type-investment", Label: "type", Category: string(DocumentTypeInvestment),
		Keywords: []string{"investment", "invest", "returns", "mutual fund", "scheme", "trading", "portfolio", "निवेश", "योजना"}},
	{ID: "type-insurance", Label: "type", Category: string(DocumentTypeInsurance),
		Keywords: []string{"insurance", "policy", "premium", "sum assured", "बीमा", "पॉलिसी"}},
	{ID: "type-prize", Label: "type", Category: string(DocumentTypePrize),
		Keywords: []string{"lottery", "prize", "winner", "lucky draw", "लॉटरी", "इनाम"}},
}

// regulatorRules are the registration markers a legitimate document of each
// type carries. Category is the document type.
var regulatorRules = []Rule{
	{ID: "reg-rbi", Label: "RBI/NBFC", Category: string(DocumentTypeLoan),
		Keywords: []string{"rbi", "nbfc", "reserve bank of india", "आरबीआई", "रिज़र्व बैंक"}},
	{ID: "reg-irdai", Label: "IRDAI", Category: string(DocumentTypeInsurance),
		Keywords: []string{"irdai", "irda", "आईआरडीएआई"}},
	{ID: "reg-sebi", Label: "SEBI", Category: string(DocumentTypeInvestment),
		Keywords: []string{"sebi", "सेबी"}},
}

var (
	documentTable  = mustRuleTable(documentRulesEN, documentRulesHI)
	docTypeTable   = mustRuleTable(documentTypeRules)
	regulatorTable = mustRuleTable(regulatorRules)
)
