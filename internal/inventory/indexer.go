package inventory

import "sort"

// IndexKey joins a language and format into the DatesByLangFormat key.
func IndexKey(lang, format string) string {
	return lang + "::" + format
}

// BuildIndexes derives the sorted language, format and date lists from t.
// Indexes are always rebuilt from scratch for a given tree.
func BuildIndexes(t Tree) Indexes {
	idx := Indexes{
		Languages:         sortedKeys(t),
		FormatsByLanguage: make(map[string][]string, len(t)),
		DatesByLangFormat: make(map[string][]string),
	}
	for lang, ln := range t {
		idx.FormatsByLanguage[lang] = sortedKeys(ln)
		for format, fn := range ln {
			idx.DatesByLangFormat[IndexKey(lang, format)] = sortedKeys(fn)
		}
	}
	return idx
}

// Formats returns the sorted formats of lang, or an empty list.
func (idx Indexes) Formats(lang string) []string {
	return cloneOrEmpty(idx.FormatsByLanguage[lang])
}

// Dates returns the sorted dates of (lang, format), or an empty list.
func (idx Indexes) Dates(lang, format string) []string {
	return cloneOrEmpty(idx.DatesByLangFormat[IndexKey(lang, format)])
}

// LanguageList returns a copy of the sorted language codes.
func (idx Indexes) LanguageList() []string {
	return cloneOrEmpty(idx.Languages)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cloneOrEmpty(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
