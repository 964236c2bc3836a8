package locale

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultLanguage is the locale assigned to newly created users and used as
// the fallback for unknown language codes.
const DefaultLanguage = "es"

// languageFile is the on-disk shape of one per-language YAML catalog.
type languageFile struct {
	Language string            `yaml:"language"`
	Name     string            `yaml:"name"`
	Aliases  []string          `yaml:"aliases"`
	Messages map[string]string `yaml:"messages"`
	Triggers struct {
		Name             []string `yaml:"name"`
		Email            []string `yaml:"email"`
		PersonalQuestion []string `yaml:"personal_question"`
	} `yaml:"triggers"`
}

// Catalog holds the loaded message catalogs for all supported languages and
// the registry that maps codes and names to canonical language codes.
type Catalog struct {
	languages map[string]*languageFile // canonical code -> catalog
	aliases   map[string]string        // lowercased alias -> canonical code
}

// Load reads every *.yaml file in dir as a language catalog.
func Load(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read locales directory %s: %w", dir, err)
	}

	c := &Catalog{
		languages: make(map[string]*languageFile),
		aliases:   make(map[string]string),
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read locale file %s: %w", entry.Name(), err)
		}
		var lf languageFile
		if err := yaml.Unmarshal(data, &lf); err != nil {
			return nil, fmt.Errorf("failed to parse locale file %s: %w", entry.Name(), err)
		}
		if lf.Language == "" {
			return nil, fmt.Errorf("locale file %s is missing the language code", entry.Name())
		}
		code := strings.ToLower(lf.Language)
		c.languages[code] = &lf
		c.aliases[code] = code
		c.aliases[strings.ToLower(lf.Name)] = code
		for _, alias := range lf.Aliases {
			c.aliases[strings.ToLower(alias)] = code
		}
	}

	if _, ok := c.languages[DefaultLanguage]; !ok {
		return nil, fmt.Errorf("default language %q catalog not found in %s", DefaultLanguage, dir)
	}

	log.Printf("🌐 [LOCALE] Loaded %d language catalogs from %s", len(c.languages), dir)
	return c, nil
}

// NewFromFiles builds a catalog directly from parsed language definitions.
// Used by tests to avoid touching the filesystem.
func NewFromFiles(files ...LanguageDefinition) *Catalog {
	c := &Catalog{
		languages: make(map[string]*languageFile),
		aliases:   make(map[string]string),
	}
	for _, def := range files {
		code := strings.ToLower(def.Code)
		lf := &languageFile{Language: code, Name: def.Name, Messages: def.Messages}
		lf.Triggers.Name = def.NameTriggers
		lf.Triggers.Email = def.EmailTriggers
		lf.Triggers.PersonalQuestion = def.PersonalQuestionTriggers
		c.languages[code] = lf
		c.aliases[code] = code
		if def.Name != "" {
			c.aliases[strings.ToLower(def.Name)] = code
		}
		for _, alias := range def.Aliases {
			c.aliases[strings.ToLower(alias)] = code
		}
	}
	return c
}

// LanguageDefinition is the programmatic equivalent of a locale YAML file.
type LanguageDefinition struct {
	Code                     string
	Name                     string
	Aliases                  []string
	Messages                 map[string]string
	NameTriggers             []string
	EmailTriggers            []string
	PersonalQuestionTriggers []string
}

// Normalize maps a user-supplied language code or name to a canonical
// supported code. Unknown input normalizes to the default language rather
// than failing.
func (c *Catalog) Normalize(input string) string {
	if code, ok := c.aliases[strings.ToLower(strings.TrimSpace(input))]; ok {
		return code
	}
	return DefaultLanguage
}

// IsLanguageSupported reports whether a catalog exists for the given code.
func (c *Catalog) IsLanguageSupported(code string) bool {
	_, ok := c.languages[strings.ToLower(code)]
	return ok
}

// GetMessage resolves a message key for a language and substitutes the
// positional parameters {0}, {1}, ... Falls back to the default language
// catalog when the requested language does not carry the key.
func (c *Catalog) GetMessage(key, languageCode string, params ...string) (string, error) {
	msg, ok := c.lookup(key, strings.ToLower(languageCode))
	if !ok {
		msg, ok = c.lookup(key, DefaultLanguage)
	}
	if !ok {
		return "", fmt.Errorf("message key %q not found for language %q", key, languageCode)
	}
	for i, p := range params {
		msg = strings.ReplaceAll(msg, fmt.Sprintf("{%d}", i), p)
	}
	return msg, nil
}

func (c *Catalog) lookup(key, code string) (string, bool) {
	lf, ok := c.languages[code]
	if !ok {
		return "", false
	}
	msg, ok := lf.Messages[key]
	return msg, ok
}

// NameTriggers returns the ordered trigger phrases that introduce a name in
// the given language, falling back to the default language list.
func (c *Catalog) NameTriggers(languageCode string) []string {
	if lf, ok := c.languages[strings.ToLower(languageCode)]; ok && len(lf.Triggers.Name) > 0 {
		return lf.Triggers.Name
	}
	if lf, ok := c.languages[DefaultLanguage]; ok {
		return lf.Triggers.Name
	}
	return nil
}

// EmailTriggers returns the ordered trigger phrases that introduce an email.
func (c *Catalog) EmailTriggers(languageCode string) []string {
	if lf, ok := c.languages[strings.ToLower(languageCode)]; ok && len(lf.Triggers.Email) > 0 {
		return lf.Triggers.Email
	}
	if lf, ok := c.languages[DefaultLanguage]; ok {
		return lf.Triggers.Email
	}
	return nil
}

// PersonalQuestionTriggers returns the phrases that mark a message as a
// personal question about the user's own profile.
func (c *Catalog) PersonalQuestionTriggers(languageCode string) []string {
	if lf, ok := c.languages[strings.ToLower(languageCode)]; ok && len(lf.Triggers.PersonalQuestion) > 0 {
		return lf.Triggers.PersonalQuestion
	}
	if lf, ok := c.languages[DefaultLanguage]; ok {
		return lf.Triggers.PersonalQuestion
	}
	return nil
}

// LanguageName returns the display name for a supported code, or the code
// itself when unknown.
func (c *Catalog) LanguageName(code string) string {
	if lf, ok := c.languages[strings.ToLower(code)]; ok {
		return lf.Name
	}
	return code
}
