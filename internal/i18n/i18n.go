// Package i18n looks up the user-facing strings of vsmm.
//
// Messages use ICU MessageFormat and live in lang/<locale>.json. The locale is
// taken from VSMM_LANG, then LANG, then the operating system.
package i18n

import (
	"embed"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"

	goLocale "github.com/jeandeaual/go-locale"
	i18nLib "github.com/kaptinlin/go-i18n"
	"golang.org/x/text/language"
)

const (
	defaultLocale = "en-GB"
	testModeEnv   = "VSMM_TEST"
	overrideEnv   = "VSMM_LANG"
)

type LocaleProvider interface {
	GetLocales() ([]string, error)
}

type DefaultLocaleProvider struct{}

func (DefaultLocaleProvider) GetLocales() ([]string, error) {
	return goLocale.GetLocales()
}

type TData map[string]interface{}

// Tvars carries the placeholders of a message. Count feeds {count} unless Data sets it.
type Tvars struct {
	Count int
	Data  *TData
}

//go:embed lang/*.json
var messages embed.FS

var (
	messageDir                    = "lang"
	localeProvider LocaleProvider = DefaultLocaleProvider{}

	loadOnce sync.Once
	current  catalog
)

type catalog struct {
	// go-i18n caches formatted messages without locking
	mu        sync.Mutex
	bundle    *i18nLib.I18n
	localizer *i18nLib.Localizer
}

func (c *catalog) set(bundle *i18nLib.I18n, localizer *i18nLib.Localizer) {
	c.mu.Lock()
	c.bundle = bundle
	c.localizer = localizer
	c.mu.Unlock()
}

func (c *catalog) get(key string, vars map[string]interface{}) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if vars == nil {
		return c.localizer.Get(key)
	}
	return c.localizer.Get(key, i18nLib.Vars(vars))
}

func ResetForTesting() {
	current.set(nil, nil)
	loadOnce = sync.Once{}
}

// T returns the message for key in the user's locale, or the key itself when no
// locale has it. In test mode it returns the key and the raw arguments instead.
func T(key string, args ...Tvars) string {
	if _, inTest := os.LookupEnv(testModeEnv); inTest {
		return describeCall(key, args)
	}
	if len(args) > 1 {
		panic("Too many arguments")
	}

	loadOnce.Do(load)

	if len(args) == 0 {
		return current.get(key, nil)
	}
	return current.get(key, placeholders(args[0]))
}

func placeholders(arg Tvars) map[string]interface{} {
	vars := map[string]interface{}{}
	if arg.Data != nil {
		for name, value := range *arg.Data {
			vars[name] = value
		}
	}
	if _, ok := vars["count"]; !ok {
		vars["count"] = arg.Count
	}
	return vars
}

func load() {
	locales, err := bundledLocales()
	if err != nil {
		panic(err)
	}

	bundle := i18nLib.NewBundle(
		i18nLib.WithDefaultLocale(defaultLocale),
		i18nLib.WithLocales(locales...),
	)
	if err := bundle.LoadFS(messages, messageDir+"/*.json"); err != nil {
		panic(err)
	}

	current.set(bundle, bundle.NewLocalizer(candidateLocales(userLocales())...))
}

// bundledLocales lists the shipped message files with the default locale first.
func bundledLocales() ([]string, error) {
	entries, err := messages.ReadDir(messageDir)
	if err != nil {
		return nil, err
	}
	locales := []string{defaultLocale}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		locale := strings.TrimSuffix(entry.Name(), path.Ext(entry.Name()))
		if strings.EqualFold(locale, defaultLocale) {
			continue
		}
		locales = append(locales, locale)
	}
	return locales, nil
}

func userLocales() []string {
	for _, name := range []string{overrideEnv, "LANG"} {
		if value, ok := os.LookupEnv(name); ok {
			if locale := posixLocale(value); locale != "" {
				return []string{locale}
			}
		}
	}

	detected, err := localeProvider.GetLocales()
	if err != nil {
		return []string{language.English.String()}
	}
	locales := make([]string, 0, len(detected))
	for _, locale := range detected {
		if locale != "" {
			locales = append(locales, locale)
		}
	}
	return locales
}

// posixLocale strips the codeset and modifier from values like de_DE.UTF-8@euro.
// C and POSIX name no language.
func posixLocale(value string) string {
	value, _, _ = strings.Cut(value, "@")
	value, _, _ = strings.Cut(value, ".")
	value = strings.TrimSpace(value)
	if value == "C" || value == "POSIX" {
		return ""
	}
	return value
}

// candidateLocales turns raw locale names into BCP 47 tags, each followed by its base language.
func candidateLocales(raw []string) []string {
	candidates := make([]string, 0, len(raw)*2)
	seen := map[string]bool{}
	add := func(tag string) {
		if tag != "" && !seen[tag] {
			seen[tag] = true
			candidates = append(candidates, tag)
		}
	}

	for _, name := range raw {
		if name == "" {
			continue
		}
		tag, err := language.Parse(name)
		if err != nil {
			continue
		}
		add(tag.String())
		base, _ := tag.Base()
		add(base.String())
	}
	return candidates
}

func describeCall(key string, args []Tvars) string {
	var out strings.Builder
	out.WriteString(key)
	for i, arg := range args {
		fmt.Fprintf(&out, ", Arg %d: {Count: %d, Data: %v}", i+1, arg.Count, arg.Data)
	}
	return out.String()
}
