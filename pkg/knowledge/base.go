// Package knowledge holds the static healthcare knowledge base: curated
// topic answers per language, medical disclaimers, resource footers, and the
// system prompt handed to model backends.
//
// Topic answers can be overridden from a YAML file and hot-reloaded while
// the service runs.
package knowledge

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/bloodplusfight/careline/pkg/classify"
)

// Base is the knowledge base. Safe for concurrent lookup while an override
// file is being reloaded.
type Base struct {
	mu     sync.RWMutex
	topics map[classify.Intent]map[string]string
}

// overrideFile is the YAML shape of a topic override file.
type overrideFile struct {
	Topics map[string]map[string]string `yaml:"topics"`
}

// NewBase creates a knowledge base holding the built-in topic answers.
func NewBase() *Base {
	topics := make(map[classify.Intent]map[string]string, len(defaultTopics))
	for intent, byLang := range defaultTopics {
		cp := make(map[string]string, len(byLang))
		for lang, text := range byLang {
			cp[lang] = text
		}
		topics[intent] = cp
	}
	return &Base{topics: topics}
}

// Lookup returns the curated answer for a specific topic and language.
// General questions have no curated answer and go to a model backend.
func (b *Base) Lookup(intent classify.Intent, language string) (string, bool) {
	if intent == classify.IntentGeneral {
		return "", false
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	byLang, ok := b.topics[intent]
	if !ok {
		return "", false
	}
	text, ok := byLang[language]
	if !ok || text == "" {
		// Fall back to English rather than dropping to a model call.
		text, ok = byLang[classify.LanguageEnglish]
	}
	return text, ok && text != ""
}

// Decorate appends the medical disclaimer, and for specific healthcare
// topics the resource footer, to an answer in the user's language.
func (b *Base) Decorate(text string, intent classify.Intent, language string) string {
	out := text
	if intent == classify.IntentHIV || intent == classify.IntentPrEP || intent == classify.IntentSTD {
		out += resourceFooter(language)
	}
	return out + disclaimer(language)
}

// LoadFile replaces topic answers from a YAML override file. Intents or
// languages absent from the file keep their current text.
func (b *Base) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read knowledge file: %w", err)
	}

	var f overrideFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("failed to parse knowledge file: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for intent, byLang := range f.Topics {
		key := classify.Intent(intent)
		if _, ok := b.topics[key]; !ok {
			b.topics[key] = make(map[string]string, len(byLang))
		}
		for lang, text := range byLang {
			if text != "" {
				b.topics[key][lang] = text
			}
		}
	}
	return nil
}

// SystemPrompt returns the healthcare system prompt for a language.
func SystemPrompt(language string) string {
	if language == classify.LanguageThai {
		return systemPromptTH
	}
	return systemPromptEN
}

// Welcome returns the bilingual greeting for new followers.
func Welcome() string {
	return welcomeMessage
}

func disclaimer(language string) string {
	if language == classify.LanguageThai {
		return disclaimerTH
	}
	return disclaimerEN
}

func resourceFooter(language string) string {
	if language == classify.LanguageThai {
		return resourcesTH
	}
	return resourcesEN
}
