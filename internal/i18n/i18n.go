// Package i18n localizes the GrammarError messages the root parce package
// formats, through github.com/nicksnyder/go-i18n; LexError and BuildError
// text is not looked up here. Locale bundles
// are loaded from the embedded locales/*.all.json files, the same flat
// id/translation shape go-i18n's own loader (i18n.MustLoadTranslationFile)
// expects.
package i18n

import (
	"embed"
	"fmt"
	"sync"

	"github.com/nicksnyder/go-i18n/i18n/bundle"
)

//go:embed locales/*.all.json
var localeFS embed.FS

var (
	once   sync.Once
	bndl   *bundle.Bundle
	loadErr error
)

func load() {
	bndl = bundle.New()
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		loadErr = err
		return
	}
	for _, e := range entries {
		data, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			loadErr = err
			return
		}
		if err := bndl.ParseTranslationFileBytes(e.Name(), data); err != nil {
			loadErr = err
			return
		}
	}
}

// T looks up id in lang (falling back to "en-US"), formatting args (a flat
// key/value list, mirroring go-i18n's Tfunc template-data convention) into
// the translation. Any lookup failure falls back to a plain %v rendering
// of id and args so a missing or corrupt bundle never blocks an error from
// surfacing: grammar errors must always be reportable.
func T(lang, id string, args ...interface{}) string {
	once.Do(load)
	fallback := func() string {
		return fmt.Sprintf("%s %v", id, args)
	}
	if loadErr != nil {
		return fallback()
	}
	data := map[string]interface{}{}
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			return fallback()
		}
		data[key] = args[i+1]
	}
	tfunc, err := bndl.Tfunc(lang, "en-US")
	if err != nil {
		return fallback()
	}
	out := tfunc(id, data)
	if out == id {
		return fallback()
	}
	return out
}
