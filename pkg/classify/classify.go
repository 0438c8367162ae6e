// Package classify performs keyword intent classification and language
// detection for inbound healthcare questions.
package classify

import "strings"

// Intent is the healthcare topic a message is about.
type Intent string

const (
	IntentHIV     Intent = "hiv"
	IntentPrEP    Intent = "prep"
	IntentSTD     Intent = "std"
	IntentGeneral Intent = "general"
)

// Language codes returned by DetectLanguage.
const (
	LanguageEnglish = "en"
	LanguageThai    = "th"
)

// intentKeywords maps each specific intent to its trigger keywords,
// checked in order. Thai keywords are matched as-is; Latin keywords are
// matched against the lowercased message.
var intentKeywords = []struct {
	intent   Intent
	keywords []string
}{
	{IntentHIV, []string{"hiv", "aids", "เอชไอวี", "เอดส์"}},
	{IntentPrEP, []string{"prep", "pre-exposure", "เพร็พ", "เพรพ", "การป้องกันก่อนสัมผัส"}},
	{IntentSTD, []string{"std", "sti", "sexually transmitted", "โรคติดต่อทางเพศ", "โรคกามโรค"}},
}

// DetectIntent classifies a message into a healthcare intent.
// Messages matching no specific topic are IntentGeneral.
func DetectIntent(text string) Intent {
	lower := strings.ToLower(text)
	for _, group := range intentKeywords {
		for _, keyword := range group.keywords {
			if strings.Contains(lower, keyword) {
				return group.intent
			}
		}
	}
	return IntentGeneral
}

// DetectLanguage reports "th" when the message contains any character in
// the Thai Unicode block, otherwise "en".
func DetectLanguage(text string) string {
	for _, r := range text {
		if r >= 0x0E00 && r <= 0x0E7F {
			return LanguageThai
		}
	}
	return LanguageEnglish
}
