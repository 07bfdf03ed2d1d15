package templating

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"path"
)

type Renderer struct {
	Template   *template.Template
	ParseError error
}

// Render function renders the template with the given data
func (r *Renderer) Render(data interface{}) (string, error) {
	if r.ParseError != nil {
		return "", fmt.Errorf("failed to parse template: %w", r.ParseError)
	}
	if r.Template == nil {
		return "", fmt.Errorf("template is nil")
	}

	buf := new(bytes.Buffer)
	err := r.Template.Execute(buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

// GetHTMLRenderer function returns a new Renderer instance
func GetHTMLRenderer(pathStr string, filename string, fsys fs.FS) (*Renderer, error) {
	fullPath := path.Join(pathStr, filename)
	// Check if the file exists in the provided fs.FS using fs.Open
	file, err := fsys.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	file.Close()

	tmpl, err := template.New(filename).Funcs(templateFuncs()).ParseFS(fsys, fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	return &Renderer{
		Template: tmpl,
	}, nil
}
