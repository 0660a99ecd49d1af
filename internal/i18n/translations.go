package i18n

import (
	"encoding/json"
	"sort"
)

const DefaultLocale = "en"

// Translations maps a locale code to a display string.
type Translations map[string]string

// NormalizeTranslations keeps only the string-valued entries of a JSON-like
// object. Anything that is not an object yields an empty mapping.
func NormalizeTranslations(raw any) Translations {
	out := Translations{}
	switch v := raw.(type) {
	case Translations:
		for k, s := range v {
			out[k] = s
		}
	case map[string]string:
		for k, s := range v {
			out[k] = s
		}
	case map[string]any:
		for k, val := range v {
			if s, ok := val.(string); ok {
				out[k] = s
			}
		}
	case json.RawMessage:
		return normalizeJSON(v)
	case []byte:
		return normalizeJSON(v)
	case string:
		// a bare string is a primitive, not an encoded object
	}
	return out
}

func normalizeJSON(b []byte) Translations {
	var obj map[string]any
	if err := json.Unmarshal(b, &obj); err != nil || obj == nil {
		return Translations{}
	}
	return NormalizeTranslations(obj)
}

// LocalizedName resolves requested locale, then English, then any value,
// then fallback.
func LocalizedName(raw any, locale, fallback string) string {
	t := NormalizeTranslations(raw)
	if s, ok := t[locale]; ok {
		return s
	}
	if s, ok := t[DefaultLocale]; ok {
		return s
	}
	if len(t) == 0 {
		return fallback
	}
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return t[keys[0]]
}
