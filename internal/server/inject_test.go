package server

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInjectScript_BeforeBodyEnd(t *testing.T) {
	doc := []byte("<html><body><p>content</p></body></html>")
	out := string(injectScript(doc))

	assert.Contains(t, out, scriptTag)
	assert.Less(t, strings.Index(out, scriptTag), strings.Index(out, "</body>"))
	assert.Contains(t, out, "<p>content</p>")
}

func TestInjectScript_IgnoresBodyTagInsideScript(t *testing.T) {
	doc := []byte(`<html><body><script>var s = "</body>";</script><p>x</p></body></html>`)
	out := string(injectScript(doc))

	// The script tag must land before the real closing tag, i.e. after <p>x</p>.
	assert.Less(t, strings.Index(out, "<p>x</p>"), strings.Index(out, scriptTag))
}

func TestInjectScript_NoBodyTagAppends(t *testing.T) {
	doc := []byte("<p>fragment without body</p>")
	out := string(injectScript(doc))

	assert.True(t, strings.HasSuffix(out, scriptTag))
	assert.True(t, strings.HasPrefix(out, "<p>fragment without body</p>"))
}
