package orchestrator

// FallbackProvider is the provider name carried by static fallback answers.
const FallbackProvider = "static-fallback"

const (
	fallbackTextEN = "I apologize, our system is currently experiencing issues. Please try again or contact our support team.\n\n⚠️ For medical emergencies, please contact healthcare providers immediately."
	fallbackTextTH = "เสียใจด้วย ขณะนี้ระบบมีปัญหา กรุณาลองใหม่อีกครั้งหรือติดต่อเจ้าหน้าที่ของเรา\n\n⚠️ สำหรับปัญหาเร่งด่วนทางการแพทย์ กรุณาติดต่อแพทย์หรือโรงพยาบาลทันที"
)

// Fallback returns the deterministic static answer for a language.
// It is tagged Degraded so callers never cache it.
func Fallback(language string) *Answer {
	text := fallbackTextEN
	if language == "th" {
		text = fallbackTextTH
	}
	return &Answer{
		Text:     text,
		Provider: FallbackProvider,
		Degraded: true,
		Language: language,
	}
}
