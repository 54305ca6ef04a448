package consent

import (
	"strings"

	"golang.org/x/text/language"
)

// Language is a supported consent language.
type Language struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"native_name"`
}

// Script is the text a user reads aloud while recording.
type Script struct {
	Language  Language `json:"language"`
	Prompt    string   `json:"prompt"`
	Statement string   `json:"statement"`
}

var scripts = []Script{
	{
		Language:  Language{Code: "en", Name: "English", NativeName: "English"},
		Prompt:    "Consent Statement (Please read aloud the text shown below):",
		Statement: "I [Name] have thoroughly reviewed and understood the product, and I am ready to proceed with the application.",
	},
	{
		Language:  Language{Code: "kn", Name: "Kannada", NativeName: "ಕನ್ನಡ"},
		Prompt:    "ಸಮ್ಮತಿ ಹೇಳಿಕೆ (ದಯವಿಟ್ಟು ಕೆಳಗೆ ಕೊಟ್ಟಿರುವ ಪಠ್ಯವನ್ನು ಜೋರಾಗಿ ಓದಿ):",
		Statement: "ನಾನು [ಹೆಸರು] ಉತ್ಪನ್ನವನ್ನು ಸಂಪೂರ್ಣವಾಗಿ ಪರಿಶೀಲಿಸಿದ್ದೇನೆ ಮತ್ತು ಅರ್ಥಮಾಡಿಕೊಂಡಿದ್ದೇನೆ, ಮತ್ತು ನಾನು ಅರ್ಜಿ ಪ್ರಕ್ರಿಯೆಗೆ ಸಿದ್ಧನಾಗಿದ್ದೇನೆ.",
	},
	{
		Language:  Language{Code: "hi", Name: "Hindi", NativeName: "हिंदी"},
		Prompt:    "सहमति विवरण (कृपया नीचे दिया गया पाठ ज़ोर से पढ़ें):",
		Statement: "मैं [नाम] ने उत्पाद की पूरी तरह से समीक्षा की है और उसे समझ लिया है, और मैं आवेदन प्रक्रिया के लिए तैयार हूँ।",
	},
	{
		Language:  Language{Code: "ta", Name: "Tamil", NativeName: "தமிழ்"},
		Prompt:    "ஒப்புதல் அறிக்கை (தயவுசெய்து கீழே கொடுக்கப்பட்டுள்ள உரையை சத்தமாக வாசிக்கவும்):",
		Statement: "[பெயர்] நான் தயாரிப்பை முழுமையாக பரிசீலித்து, புரிந்துகொண்டேன், மற்றும் விண்ணப்ப செயல்முறைக்குத் தயாராக இருக்கிறேன்.",
	},
	{
		Language:  Language{Code: "te", Name: "Telugu", NativeName: "తెలుగు"},
		Prompt:    "సమ్మతి ప్రకటన (దయచేసి క్రింద ఇచ్చిన వాక్యాన్ని పెద్దగా చదవండి):",
		Statement: "[పేరు] నేను ఉత్పత్తిని పూర్తిగా సమీక్షించి, అర్థం చేసుకున్నాను, మరియు దరఖాస్తు ప్రక్రియకు సిద్ధంగా ఉన్నాను.",
	},
	{
		Language:  Language{Code: "bn", Name: "Bengali", NativeName: "বাংলা"},
		Prompt:    "সম্মতি বিবৃতি (অনুগ্রহ করে নিচে দেওয়া পাঠটি জোরে পড়ুন):",
		Statement: "আমি [নাম] পণ্যটি সম্পূর্ণভাবে পর্যালোচনা করেছি এবং বুঝেছি, এবং আমি আবেদন প্রক্রিয়া এগিয়ে নিতে প্রস্তুত।",
	},
}

// Catalog resolves consent scripts by language, falling back to a default.
type Catalog struct {
	byCode   map[string]Script
	fallback Script
	matcher  language.Matcher
	tags     []language.Tag
}

// NewCatalog builds the catalog. An unknown defaultCode falls back to English.
func NewCatalog(defaultCode string) *Catalog {
	c := &Catalog{byCode: make(map[string]Script, len(scripts))}
	for _, s := range scripts {
		c.byCode[s.Language.Code] = s
	}

	fallback, ok := c.byCode[normalize(defaultCode)]
	if !ok {
		fallback = scripts[0]
	}
	c.fallback = fallback

	// The matcher prefers its first tag when nothing matches.
	c.tags = append(c.tags, language.Make(fallback.Language.Code))
	for _, s := range scripts {
		if s.Language.Code != fallback.Language.Code {
			c.tags = append(c.tags, language.Make(s.Language.Code))
		}
	}
	c.matcher = language.NewMatcher(c.tags)
	return c
}

// Default returns the fallback script.
func (c *Catalog) Default() Script {
	return c.fallback
}

// Languages lists the supported languages in display order.
func (c *Catalog) Languages() []Language {
	out := make([]Language, 0, len(scripts))
	for _, s := range scripts {
		out = append(out, s.Language)
	}
	return out
}

// Lookup returns the script for code and whether it was found. Unknown codes
// resolve to the default script.
func (c *Catalog) Lookup(code string) (Script, bool) {
	if s, ok := c.byCode[normalize(code)]; ok {
		return s, true
	}
	return c.fallback, false
}

// Match picks the best script for an Accept-Language header value.
func (c *Catalog) Match(acceptLanguage string) Script {
	if strings.TrimSpace(acceptLanguage) == "" {
		return c.fallback
	}
	requested, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(requested) == 0 {
		return c.fallback
	}
	_, index, confidence := c.matcher.Match(requested...)
	if confidence == language.No {
		return c.fallback
	}
	base, _ := c.tags[index].Base()
	if s, ok := c.byCode[base.String()]; ok {
		return s
	}
	return c.fallback
}

// Resolve prefers an explicit code, then the Accept-Language header, then
// the default.
func (c *Catalog) Resolve(code, acceptLanguage string) Script {
	if s, ok := c.Lookup(code); ok {
		return s
	}
	return c.Match(acceptLanguage)
}

func normalize(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if tag, err := language.Parse(code); err == nil {
		base, _ := tag.Base()
		return base.String()
	}
	return code
}
