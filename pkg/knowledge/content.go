package knowledge

import "github.com/bloodplusfight/careline/pkg/classify"

const (
	disclaimerEN = "\n\n⚠️ This information is for educational purposes only. Always consult healthcare professionals for medical advice."
	disclaimerTH = "\n\n⚠️ ข้อมูลนี้เพื่อการศึกษาเท่านั้น กรุณาปรึกษาแพทย์เสมอสำหรับคำแนะนำทางการแพทย์"

	resourcesEN = "\n\n🏥 Additional Resources:\n• Department of Disease Control, Thailand\n• ACCESS Foundation\n• Local healthcare providers"
	resourcesTH = "\n\n🏥 ทรัพยากรเพิ่มเติม:\n• กรมควบคุมโรค กระทรวงสาธารณสุข\n• มูลนิธิ ACCESS\n• โรงพยาบาลใกล้บ้าน"
)

const systemPromptEN = `You are a healthcare assistant specializing in HIV, STDs/STIs, and prevention.
Provide accurate, helpful, and easy-to-understand information.
Focus on prevention, health maintenance, and risk reduction.
Use clear, accessible language without overly complex medical terminology.
Always recommend consulting healthcare professionals for diagnosis and treatment.`

const systemPromptTH = `คุณเป็นผู้ช่วยด้านสุขภาพที่เชี่ยวชาญเรื่องเอชไอวี โรคติดต่อทางเพศสัมพันธ์ และการป้องกัน
ให้ข้อมูลที่ถูกต้อง เป็นประโยชน์ และเข้าใจง่าย
เน้นการป้องกัน การดูแลสุขภาพ และการลดความเสี่ยง
ใช้ภาษาไทยที่เข้าใจง่าย ไม่ใช้คำศัพท์ทางการแพทย์ที่ซับซ้อนเกินไป
เสมอให้คำแนะนำให้ปรึกษาแพทย์สำหรับการวินิจฉัยและการรักษา`

const welcomeMessage = `🏥 สวัสดีครับ/ค่ะ! ยินดีต้อนรับสู่ Careline Healthcare Assistant

ฉันสามารถช่วยให้ข้อมูลเกี่ยวกับ:
• เอชไอวี (HIV) และการป้องกัน
• PrEP (การป้องกันก่อนสัมผัส)
• โรคติดต่อทางเพศสัมพันธ์ (STDs/STIs)
• คำแนะนำด้านสุขภาพทั่วไป

🌟 Hello! Welcome to Careline Healthcare Assistant

I can help with information about:
• HIV and prevention
• PrEP (Pre-exposure prophylaxis)
• STDs/STIs
• General health guidance

⚠️ ข้อมูลนี้เพื่อการศึกษาเท่านั้น กรุณาปรึกษาแพทย์เสมอ
⚠️ This information is for educational purposes only. Always consult healthcare professionals.`

const hivInfoEN = `🏥 **HIV Information**

HIV (Human Immunodeficiency Virus) attacks the immune system:

**Key Facts:**
• **Transmission**: Blood, semen, vaginal fluids, breast milk
• **Prevention**: Condoms, PrEP, regular testing
• **Treatment**: Antiretroviral therapy (ART) is highly effective
• **Testing**: Multiple test types with different window periods

**U=U**: Undetectable = Untransmittable. People with undetectable viral loads cannot transmit HIV sexually.

**Prevention Methods:**
• Use condoms consistently and correctly
• Get tested regularly (every 3-6 months if sexually active)
• Consider PrEP if at high risk
• Avoid sharing needles or injection equipment
• Get treated for other STDs (they increase HIV risk)`

const hivInfoTH = `🏥 **ข้อมูลเอชไอวี**

เอชไอวี (Human Immunodeficiency Virus) ทำลายระบบภูมิคุ้มกัน:

**ข้อมูลสำคัญ:**
• **การติดต่อ**: เลือด น้ำอสุจิ น้ำหล่อลื่นช่องคลอด น้ำนมแม่
• **การป้องกัน**: ถุงยางอนามัย PrEP ตรวจเลือดเป็นประจำ
• **การรักษา**: ยาต้านไวรัส (ART) มีประสิทธิภาพสูง
• **การตรวจ**: การตรวจหลายประเภทที่มีช่วงหน้าต่างแตกต่างกัน

**U=U**: ตรวจไม่พบ = ไม่ติดต่อ ผู้ที่มีปริมาณไวรัสตรวจไม่พบจะไม่ติดต่อเอชไอวีทางเพศสัมพันธ์

**วิธีการป้องกัน:**
• ใช้ถุงยางอนามัยอย่างถูกต้องและสม่ำเสมอ
• ตรวจเลือดเป็นประจำ (ทุก 3-6 เดือนหากมีเพศสัมพันธ์)
• พิจารณาใช้ PrEP หากมีความเสี่ยงสูง
• หลีกเลี่ยงการใช้เข็มฉีดร่วมกัน
• รักษาโรคติดต่อทางเพศสัมพันธ์อื่นๆ (เพิ่มความเสี่ยงเอชไอวี)`

const prepInfoEN = `🏥 **PrEP Information**

Pre-exposure prophylaxis (PrEP) prevents HIV infection:

**Effectiveness:**
• **99% effective** when taken as prescribed for sexual transmission
• **74% effective** for injection drug use

**Who Should Consider PrEP:**
• People with HIV-positive partners
• Multiple sexual partners
• Injection drug users
• Men who have sex with men in high-prevalence areas
• Anyone at substantial risk of HIV

**Monitoring Required:**
• HIV testing every 3 months
• Kidney function tests
• STD screening
• Regular medical check-ups

**Important Notes:**
• Must be taken daily for maximum effectiveness
• Does not protect against other STDs
• Requires prescription from healthcare provider
• Side effects are generally mild and temporary`

const prepInfoTH = `🏥 **ข้อมูล PrEP**

การป้องกันก่อนสัมผัส (PrEP) ป้องกันการติดเชื้อเอชไอวี:

**ประสิทธิภาพ:**
• **99% ประสิทธิภาพ** เมื่อทานตามแพทย์สั่งสำหรับการติดต่อทางเพศสัมพันธ์
• **74% ประสิทธิภาพ** สำหรับผู้ใช้ยาเสพติดฉีด

**ใครควรพิจารณาใช้ PrEP:**
• คนที่มีคู่นอนติดเชื้อเอชไอวี
• มีคู่นอนหลายคน
• ผู้ใช้ยาเสพติดฉีด
• ชายที่มีเพศสัมพันธ์กับชายในพื้นที่ที่มีการแพร่ระบาดสูง
• ผู้ที่มีความเสี่ยงสูงต่อการติดเชื้อเอชไอวี

**การติดตามที่จำเป็น:**
• ตรวจเอชไอวีทุก 3 เดือน
• ตรวจการทำงานของไต
• ตรวจโรคติดต่อทางเพศสัมพันธ์
• ตรวจสุขภาพเป็นประจำ

**ข้อสำคัญ:**
• ต้องทานทุกวันเพื่อประสิทธิภาพสูงสุด
• ไม่ป้องกันโรคติดต่อทางเพศสัมพันธ์อื่นๆ
• ต้องมีใบสั่งยาจากแพทย์
• ผลข้างเคียงโดยทั่วไปไม่รุนแรงและชั่วคราว`

const stdInfoEN = `🏥 **STDs/STIs Information**

Sexually transmitted diseases prevention and care:

**Common STDs:**
• **Chlamydia** - Most common, often no symptoms, curable
• **Gonorrhea** - Bacterial infection, may be drug-resistant
• **Syphilis** - Stages of infection, highly contagious early
• **Herpes** - Viral, manageable but not curable
• **HPV** - Some cause warts, others can cause cancer

**Prevention:**
• Use condoms consistently and correctly
• Regular testing for sexually active individuals
• HPV and Hepatitis B vaccines available
• Open communication with partners
• Limit number of sexual partners

**Testing Recommendations:**
• Annual screening for sexually active individuals
• More frequent testing if multiple partners
• Test before new sexual relationships
• Both partners should be tested`

const stdInfoTH = `🏥 **ข้อมูลโรคติดต่อทางเพศสัมพันธ์**

การป้องกันและดูแลโรคติดต่อทางเพศสัมพันธ์:

**โรคที่พบบ่อย:**
• **หนองในเทียม** - พบบ่อยที่สุด มักไม่มีอาการ รักษาหายได้
• **หนองใน** - การติดเชื้อแบคทีเรีย อาจดื้อยา
• **ซิฟิลิส** - มีหลายระยะ ติดต่อง่ายในระยะแรก
• **เริม** - เชื้อไวรัส ควบคุมได้แต่ไม่หายขาด
• **HPV** - บางชนิดทำให้เกิดหูด บางชนิดก่อมะเร็ง

**การป้องกัน:**
• ใช้ถุงยางอนามัยอย่างถูกต้องและสม่ำเสมอ
• ตรวจสุขภาพเป็นประจำหากมีเพศสัมพันธ์
• มีวัคซีน HPV และไวรัสตับอักเสบบี
• สื่อสารอย่างเปิดเผยกับคู่นอน
• จำกัดจำนวนคู่นอน

**คำแนะนำการตรวจ:**
• ตรวจคัดกรองประจำปีหากมีเพศสัมพันธ์
• ตรวจบ่อยขึ้นหากมีคู่นอนหลายคน
• ตรวจก่อนเริ่มความสัมพันธ์ใหม่
• คู่นอนทั้งสองฝ่ายควรตรวจ`

// defaultTopics is the built-in knowledge base, keyed by intent then
// language.
var defaultTopics = map[classify.Intent]map[string]string{
	classify.IntentHIV: {
		classify.LanguageEnglish: hivInfoEN,
		classify.LanguageThai:    hivInfoTH,
	},
	classify.IntentPrEP: {
		classify.LanguageEnglish: prepInfoEN,
		classify.LanguageThai:    prepInfoTH,
	},
	classify.IntentSTD: {
		classify.LanguageEnglish: stdInfoEN,
		classify.LanguageThai:    stdInfoTH,
	},
}
