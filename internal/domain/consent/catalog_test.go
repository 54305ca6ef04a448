package consent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"jan-server/services/consent-api/internal/domain/consent"
)

func TestCatalog_Lookup(t *testing.T) {
	catalog := consent.NewCatalog("en")

	tests := []struct {
		code  string
		want  string
		found bool
	}{
		{"en", "en", true},
		{"kn", "kn", true},
		{" HI ", "hi", true},
		{"ta-IN", "ta", true},
		{"fr", "en", false},
		{"", "en", false},
		{"not a language", "en", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			script, found := catalog.Lookup(tt.code)
			assert.Equal(t, tt.want, script.Language.Code)
			assert.Equal(t, tt.found, found)
			assert.NotEmpty(t, script.Prompt)
			assert.NotEmpty(t, script.Statement)
		})
	}
}

func TestCatalog_Match(t *testing.T) {
	catalog := consent.NewCatalog("en")

	assert.Equal(t, "kn", catalog.Match("kn-IN,kn;q=0.9,en;q=0.8").Language.Code)
	assert.Equal(t, "bn", catalog.Match("fr;q=0.9, bn;q=0.8").Language.Code)
	assert.Equal(t, "en", catalog.Match("").Language.Code)
	assert.Equal(t, "en", catalog.Match("de-DE").Language.Code)
	assert.Equal(t, "en", catalog.Match(";;;").Language.Code)
}

func TestCatalog_DefaultLanguage(t *testing.T) {
	catalog := consent.NewCatalog("te")
	assert.Equal(t, "te", catalog.Default().Language.Code)

	script, found := catalog.Lookup("xx")
	assert.False(t, found)
	assert.Equal(t, "te", script.Language.Code)
	assert.Equal(t, "te", catalog.Match("de").Language.Code)

	assert.Equal(t, "en", consent.NewCatalog("zz").Default().Language.Code)
}

func TestCatalog_Resolve(t *testing.T) {
	catalog := consent.NewCatalog("en")

	assert.Equal(t, "hi", catalog.Resolve("hi", "ta").Language.Code)
	assert.Equal(t, "ta", catalog.Resolve("", "ta").Language.Code)
	assert.Equal(t, "en", catalog.Resolve("xx", "").Language.Code)
}

func TestCatalog_Languages(t *testing.T) {
	languages := consent.NewCatalog("en").Languages()

	codes := make([]string, 0, len(languages))
	for _, l := range languages {
		codes = append(codes, l.Code)
	}
	assert.Equal(t, []string{"en", "kn", "hi", "ta", "te", "bn"}, codes)
	assert.Equal(t, "ಕನ್ನಡ", languages[1].NativeName)
}
