package webui

import (
	"embed"

	"github.com/labstack/echo/v4"
)

// Embedding the public and templates directories

//go:embed templates
var templates embed.FS

//go:embed public
var public embed.FS

var TemplateFS = echo.MustSubFS(templates, "templates")
var PublicFS = echo.MustSubFS(public, "public")
