// Package i18n handles localized user-facing strings.
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
	"github.com/pkg/errors"
	"golang.org/x/text/language"

	"github.com/meza/i18n-typegen/internal/environment"
)

type LocaleProvider interface {
	GetLocales() ([]string, error)
}

type DefaultLocaleProvider struct{}

func (provider DefaultLocaleProvider) GetLocales() ([]string, error) {
	return goLocale.GetLocales()
}

//go:embed lang/*.json
var catalogFS embed.FS

const defaultLocale = "en-GB"

// localeVars are consulted in POSIX precedence order before asking the OS.
var localeVars = []string{"LC_ALL", "LC_MESSAGES", "LANG"}

var (
	langDir        = "lang"
	localeProvider LocaleProvider = DefaultLocaleProvider{}

	setupOnce sync.Once
	// catalogMu guards active. go-i18n caches parsed messages without locking.
	catalogMu sync.Mutex
	active    *catalog
)

type catalog struct {
	bundle    *i18nLib.I18n
	localizer *i18nLib.Localizer
}

type TData map[string]interface{}

// Tvars carries placeholder values. Count is always exposed as {count}.
type Tvars struct {
	Count int
	Data  *TData
}

// ResetForTesting forces the next T call to rebuild the catalog.
func ResetForTesting() {
	catalogMu.Lock()
	active = nil
	catalogMu.Unlock()
	setupOnce = sync.Once{}
}

// T looks key up in the user's locale, falling back to en-GB and then to the
// key itself. In test mode the key and arguments are echoed back.
func T(key string, args ...Tvars) string {
	if environment.TestMode() {
		return formatKeyAndArgs(key, args...)
	}
	if len(args) > 1 {
		panic("Too many arguments")
	}

	setupOnce.Do(setup)

	catalogMu.Lock()
	defer catalogMu.Unlock()

	if len(args) == 0 {
		return active.localizer.Get(key)
	}
	return active.localizer.Get(key, i18nLib.Vars(messageVars(args[0])))
}

// setup panics because a broken embedded catalog is a build defect.
func setup() {
	loaded, err := load()
	if err != nil {
		panic(err)
	}

	catalogMu.Lock()
	active = loaded
	catalogMu.Unlock()
}

func load() (*catalog, error) {
	files, err := catalogFS.ReadDir(langDir)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot list message catalogs in %s", langDir)
	}

	locales := []string{defaultLocale}
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		locale := strings.TrimSuffix(file.Name(), path.Ext(file.Name()))
		if !strings.EqualFold(locale, defaultLocale) {
			locales = append(locales, locale)
		}
	}

	bundle := i18nLib.NewBundle(
		i18nLib.WithDefaultLocale(defaultLocale),
		i18nLib.WithLocales(locales...),
	)
	if err := bundle.LoadFS(catalogFS, langDir+"/*.json"); err != nil {
		return nil, errors.Wrapf(err, "cannot load message catalogs in %s", langDir)
	}

	return &catalog{
		bundle:    bundle,
		localizer: bundle.NewLocalizer(buildLocalizerLocales(getUserLocales())...),
	}, nil
}

func messageVars(args Tvars) map[string]interface{} {
	vars := make(map[string]interface{})
	if args.Data != nil {
		for name, value := range *args.Data {
			vars[name] = value
		}
	}
	vars["count"] = args.Count
	return vars
}

// getUserLocales prefers the locale environment variables and falls back to
// the OS preference list, then to English.
func getUserLocales() []string {
	for _, name := range localeVars {
		if value := strings.TrimSpace(os.Getenv(name)); value != "" {
			return []string{value}
		}
	}

	detected, err := localeProvider.GetLocales()
	if err != nil {
		return []string{language.English.String()}
	}

	locales := make([]string, 0, len(detected))
	for _, localeName := range detected {
		if localeName != "" {
			locales = append(locales, localeName)
		}
	}
	return locales
}

func formatKeyAndArgs(key string, args ...Tvars) string {
	var sb strings.Builder
	sb.WriteString(key)
	for index, arg := range args {
		sb.WriteString(fmt.Sprintf(", Arg %d: {Count: %d, Data: %v}", index+1, arg.Count, arg.Data))
	}
	return sb.String()
}

// posixLocaleName strips the codeset and modifier from names such as
// "en_GB.UTF-8@euro". The C and POSIX locales carry no language.
func posixLocaleName(name string) string {
	if cut := strings.IndexAny(name, ".@"); cut >= 0 {
		name = name[:cut]
	}
	if name == "C" || name == "POSIX" {
		return ""
	}
	return name
}

// buildLocalizerLocales turns raw locale names into BCP 47 tags, each
// followed by its base language. Unparseable names are dropped.
func buildLocalizerLocales(rawLocales []string) []string {
	locales := make([]string, 0, len(rawLocales)*2)
	seen := make(map[string]struct{}, len(rawLocales)*2)
	add := func(tag string) {
		if _, ok := seen[tag]; ok || tag == "" {
			return
		}
		seen[tag] = struct{}{}
		locales = append(locales, tag)
	}

	for _, localeName := range rawLocales {
		localeName = posixLocaleName(localeName)
		if localeName == "" {
			continue
		}

		tag, err := language.Parse(localeName)
		if err != nil {
			continue
		}

		add(tag.String())
		if base, _ := tag.Base(); base.String() != "und" {
			add(base.String())
		}
	}

	return locales
}
