package knowledge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bloodplusfight/careline/pkg/classify"
)

func TestLookup(t *testing.T) {
	b := NewBase()

	for _, intent := range []classify.Intent{classify.IntentHIV, classify.IntentPrEP, classify.IntentSTD} {
		for _, lang := range []string{classify.LanguageEnglish, classify.LanguageThai} {
			text, ok := b.Lookup(intent, lang)
			if !ok || text == "" {
				t.Errorf("Lookup(%q, %q): expected curated answer", intent, lang)
			}
		}
	}

	if _, ok := b.Lookup(classify.IntentGeneral, "en"); ok {
		t.Error("general intent must not have a curated answer")
	}
}

func TestLookup_UnknownLanguageFallsBackToEnglish(t *testing.T) {
	b := NewBase()

	text, ok := b.Lookup(classify.IntentHIV, "fr")
	if !ok {
		t.Fatal("expected english fallback")
	}
	en, _ := b.Lookup(classify.IntentHIV, classify.LanguageEnglish)
	if text != en {
		t.Error("expected the english answer for unknown languages")
	}
}

func TestDecorate(t *testing.T) {
	b := NewBase()

	out := b.Decorate("answer body", classify.IntentHIV, "en")
	if !strings.HasPrefix(out, "answer body") {
		t.Error("decorated answer must keep the body first")
	}
	if !strings.Contains(out, "Additional Resources") {
		t.Error("specific topics must carry the resource footer")
	}
	if !strings.Contains(out, "educational purposes only") {
		t.Error("every answer must carry the disclaimer")
	}

	general := b.Decorate("answer body", classify.IntentGeneral, "en")
	if strings.Contains(general, "Additional Resources") {
		t.Error("general answers must not carry the resource footer")
	}
	if !strings.Contains(general, "educational purposes only") {
		t.Error("general answers still carry the disclaimer")
	}

	thai := b.Decorate("คำตอบ", classify.IntentSTD, "th")
	if !strings.Contains(thai, "ทรัพยากรเพิ่มเติม") || !strings.Contains(thai, "เพื่อการศึกษาเท่านั้น") {
		t.Error("thai answers must carry thai footers")
	}
}

func TestLoadFile_OverridesTopics(t *testing.T) {
	b := NewBase()

	path := filepath.Join(t.TempDir(), "topics.yaml")
	override := `topics:
  hiv:
    en: "updated hiv answer"
`
	if err := os.WriteFile(path, []byte(override), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := b.LoadFile(path); err != nil {
		t.Fatal(err)
	}

	text, ok := b.Lookup(classify.IntentHIV, "en")
	if !ok || text != "updated hiv answer" {
		t.Errorf("expected override, got %q", text)
	}

	// Untouched language keeps the built-in answer.
	th, ok := b.Lookup(classify.IntentHIV, "th")
	if !ok || !strings.Contains(th, "เอชไอวี") {
		t.Error("thai answer must survive a partial override")
	}
}

func TestLoadFile_RejectsMalformedYAML(t *testing.T) {
	b := NewBase()

	path := filepath.Join(t.TempDir(), "topics.yaml")
	if err := os.WriteFile(path, []byte("topics: ["), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := b.LoadFile(path); err == nil {
		t.Fatal("expected parse error")
	}

	// Built-in answers survive the failed load.
	if _, ok := b.Lookup(classify.IntentHIV, "en"); !ok {
		t.Error("built-in topics must survive a failed reload")
	}
}

func TestSystemPromptAndWelcome(t *testing.T) {
	if !strings.Contains(SystemPrompt("en"), "healthcare assistant") {
		t.Error("unexpected english system prompt")
	}
	if !strings.Contains(SystemPrompt("th"), "ผู้ช่วยด้านสุขภาพ") {
		t.Error("unexpected thai system prompt")
	}
	if !strings.Contains(Welcome(), "Careline") {
		t.Error("welcome message must introduce the assistant")
	}
}
