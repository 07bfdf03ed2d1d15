package htmx

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// GetHTMLFragmentByID returns the HTML fragment with the specified id from
// already rendered HTML. Used to serve partial updates to htmx requests
// without a second template per fragment.
func GetHTMLFragmentByID(id string, renderedHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(renderedHTML)))
	if err != nil {
		return "", err
	}

	selection := doc.Find("#" + id)
	if selection.Length() == 0 {
		return "", fmt.Errorf("fragment %q not found", id)
	}

	fragmentContent, err := goquery.OuterHtml(selection)
	if err != nil {
		return "", err
	}

	return fragmentContent, nil
}

// IsHTMXRequest reports whether the request carries the htmx marker header.
func IsHTMXRequest(header string) bool {
	return header == "true"
}
