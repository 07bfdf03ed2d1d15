package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// LangKey is a key for setting and getting the language from the context
const LangKey = "CurrentLang"

// LanguageDetection detects the current language and sets it in the context
func LanguageDetection(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		lang := detectCurrentLanguage(c)
		c.Set(LangKey, lang)
		return next(c)
	}
}

func detectCurrentLanguage(c echo.Context) string {
	header := c.Request().Header.Get("Accept-Language")
	if strings.HasPrefix(header, "fr") {
		return "fr"
	}
	return "en" // Default to English
}

// Lang returns the detected language from the context, defaulting to English.
func Lang(c echo.Context) string {
	if lang, ok := c.Get(LangKey).(string); ok {
		return lang
	}
	return "en"
}
