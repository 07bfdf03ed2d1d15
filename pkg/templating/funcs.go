package templating

import (
	"html/template"
	"time"
)

// templateFuncs are the helpers available in every template.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatDate":    FormatDate,
		"languageColor": LanguageColor,
		"sanitize":      SanitizeText,
	}
}

// FormatDate renders an RFC3339 timestamp as "Jan 2, 2006". Unparseable
// input passes through unchanged.
func FormatDate(value string) string {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return t.Format("Jan 2, 2006")
}

var languageColors = map[string]string{
	"TypeScript": "lang-blue",
	"JavaScript": "lang-yellow",
	"Python":     "lang-green",
	"Java":       "lang-red",
	"C++":        "lang-purple",
	"Go":         "lang-cyan",
}

// LanguageColor maps a primary language to its css class.
func LanguageColor(language string) string {
	if c, ok := languageColors[language]; ok {
		return c
	}
	return "lang-gray"
}
