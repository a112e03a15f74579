package orchestrator

import (
	"strings"

	"dhankavach/internal/domain/services/extract"
)

// Safety tip topics
const (
	TopicUPI     = "upi"
	TopicBanking = "banking"
	TopicLoans   = "loans"
	TopicKYC     = "kyc"
	TopicOTP     = "otp"
	TopicScams   = "scams"
)

// Tips is a bilingual tip list for one topic
type Tips struct {
	Topic   string   `json:"topic"`
	English []string `json:"tips_english"`
	Hindi   []string `json:"tips_hindi"`
}

var tipsByTopic = map[string]Tips{
	TopicUPI: {
		English: []string{
			"Never share your UPI PIN with anyone, bank staff included",
			"Banks never ask for your PIN over a call or SMS",
			"Check the receiver's name before you confirm a payment",
			"Receiving money never needs your PIN or a QR scan",
			"If someone says they paid you by mistake, ask them to contact their bank",
		},
		Hindi: []string{
			"अपना UPI PIN किसी को न बताएं, बैंक कर्मचारी को भी नहीं",
			"बैंक कभी फोन या SMS पर PIN नहीं मांगता",
			"पेमेंट से पहले पाने वाले का नाम जरूर जांचें",
			"पैसे लेने के लिए PIN डालने या QR स्कैन करने की जरूरत नहीं होती",
			"कोई गलती से पैसे भेजने की बात कहे तो उसे अपने बैंक से संपर्क करने को कहें",
		},
	},
	TopicBanking: {
		English: []string{
			"Do not open links from SMS; type the bank's website yourself",
			"A real bank site uses https:// and shows a lock icon",
			"Call customer care only on the number printed on your card",
			"Banks never ask you to install AnyDesk or TeamViewer",
			"Never share an OTP; bank staff do not need it",
		},
		Hindi: []string{
			"SMS के लिंक पर क्लिक न करें, बैंक की वेबसाइट खुद खोलें",
			"असली बैंक वेबसाइट https:// से शुरू होती है",
			"कस्टमर केयर का नंबर अपने कार्ड पर ही देखें",
			"बैंक कभी AnyDesk या TeamViewer डाउनलोड करने को नहीं कहता",
			"OTP किसी को न बताएं, बैंक कर्मचारी को भी इसकी जरूरत नहीं",
		},
	},
	TopicLoans: {
		English: []string{
			"A genuine loan never asks for a processing fee up front",
			"Check that the lender is registered with the RBI",
			"Read the interest rate and penalty terms before you sign",
			"Treat 0% interest claims with suspicion; the charges are hidden elsewhere",
			"Never hand over blank signed cheques or documents",
		},
		Hindi: []string{
			"असली लोन में पहले से कोई फीस नहीं देनी होती",
			"जांचें कि लोन देने वाला RBI में रजिस्टर्ड है",
			"साइन करने से पहले ब्याज दर और जुर्माने की शर्तें पढ़ें",
			"0% ब्याज के दावे पर भरोसा न करें, छुपे चार्ज होते हैं",
			"खाली साइन किया चेक या कागज कभी न दें",
		},
	},
	TopicKYC: {
		English: []string{
			"Banks do not send KYC update links by SMS",
			"KYC happens at the branch or inside the official bank app",
			"KYC never needs your OTP or PIN",
			"If a KYC message arrives, check with your branch in person",
			"Real KYC has no '24 hours' or 'today only' deadline",
		},
		Hindi: []string{
			"बैंक SMS में KYC अपडेट का लिंक नहीं भेजता",
			"KYC ब्रांच में या बैंक के ऑफिशियल ऐप से होता है",
			"KYC के लिए OTP या PIN की जरूरत नहीं होती",
			"KYC का मैसेज आए तो ब्रांच जाकर पता करें",
			"असली KYC में '24 घंटे' या 'आज ही' की जल्दबाजी नहीं होती",
		},
	},
	TopicOTP: {
		English: []string{
			"An OTP is the key to your account; keep it to yourself",
			"No bank employee needs your OTP for any reason",
			"Anyone asking for your OTP is running a scam",
			"Enter an OTP only in the official app or website yourself",
			"'Just verify' and 'cancel the transaction' are common tricks to get an OTP",
		},
		Hindi: []string{
			"OTP आपके खाते की चाबी है, इसे किसी को न बताएं",
			"किसी बैंक कर्मचारी को आपके OTP की जरूरत नहीं होती",
			"जो भी OTP मांगे, वह धोखाधड़ी कर रहा है",
			"OTP सिर्फ ऑफिशियल ऐप या वेबसाइट पर खुद डालें",
			"'बस वेरीफाई करना है' कहकर OTP मांगना ठगों की चाल है",
		},
	},
	TopicScams: {
		English: []string{
			"If an offer sounds too good to be true, it is a scam",
			"Never pay money to receive a prize or lottery",
			"Government agencies do not threaten arrest over the phone",
			"Verify unusual requests by calling the official number yourself",
			"When in doubt, ask a family member before you act",
		},
		Hindi: []string{
			"जो ऑफर बहुत अच्छा लगे, वह अक्सर धोखा होता है",
			"इनाम या लॉटरी पाने के लिए कभी पैसे न दें",
			"सरकारी एजेंसी फोन पर गिरफ्तारी की धमकी नहीं देती",
			"अजीब मांग हो तो ऑफिशियल नंबर पर खुद फोन करके पता करें",
			"शक हो तो कुछ करने से पहले परिवार से पूछें",
		},
	},
}

var topicAliases = map[string]string{
	"upi":      TopicUPI,
	"payment":  TopicUPI,
	"gpay":     TopicUPI,
	"phonepe":  TopicUPI,
	"paytm":    TopicUPI,
	"bank":     TopicBanking,
	"banking":  TopicBanking,
	"account":  TopicBanking,
	"loan":     TopicLoans,
	"loans":    TopicLoans,
	"credit":   TopicLoans,
	"kyc":      TopicKYC,
	"pan":      TopicKYC,
	"aadhaar":  TopicKYC,
	"otp":      TopicOTP,
	"pin":      TopicOTP,
	"scam":     TopicScams,
	"scams":    TopicScams,
	"fraud":    TopicScams,
	"general":  TopicScams,
	"लोन":      TopicLoans,
	"बैंक":     TopicBanking,
	"ओटीपी":    TopicOTP,
	"केवाईसी":  TopicKYC,
	"धोखाधड़ी": TopicScams,
}

// topic detection order for free text; the first hit wins
var topicOrder = []string{"otp", "pin", "ओटीपी", "kyc", "केवाईसी", "aadhaar", "pan", "upi", "gpay", "phonepe", "paytm", "payment", "loan", "लोन", "credit", "bank", "बैंक", "account"}

// TipsFor returns the tips for a topic or alias. Unknown topics get the general scam tips.
func TipsFor(topic string) Tips {
	key, ok := topicAliases[extract.FoldText(strings.TrimSpace(topic))]
	if !ok {
		key = TopicScams
	}
	tips := tipsByTopic[key]
	tips.Topic = key
	tips.English = append([]string(nil), tips.English...)
	tips.Hindi = append([]string(nil), tips.Hindi...)
	return tips
}

// TopicFor picks the tip topic that best fits a free-text question
func TopicFor(text string) string {
	folded := extract.FoldText(text)
	for _, word := range topicOrder {
		if extract.ContainsPhrase(folded, word) {
			return topicAliases[word]
		}
	}
	return TopicScams
}
