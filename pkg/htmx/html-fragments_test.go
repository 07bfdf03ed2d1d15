package htmx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><body>
<div id="repo-area"><p>content</p></div>
<div id="other">else</div>
</body></html>`

func TestGetHTMLFragmentByID(t *testing.T) {
	fragment, err := GetHTMLFragmentByID("repo-area", page)
	require.NoError(t, err)
	assert.Contains(t, fragment, `id="repo-area"`)
	assert.Contains(t, fragment, "<p>content</p>")
	assert.NotContains(t, fragment, "else")
}

func TestGetHTMLFragmentByID_Missing(t *testing.T) {
	_, err := GetHTMLFragmentByID("missing", page)
	assert.Error(t, err)
}

func TestIsHTMXRequest(t *testing.T) {
	assert.True(t, IsHTMXRequest("true"))
	assert.False(t, IsHTMXRequest(""))
	assert.False(t, IsHTMXRequest("false"))
}
