package server

import (
	"bytes"
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

const injectorMaxSize = 512 * 1024 // typical HTML page fits comfortably

const scriptTag = `<script async src="` + LiveReloadScriptPath + `"></script>`

// injectLiveReload wraps a handler so HTML responses get the livereload
// client script appended before the closing body tag.
func injectLiveReload(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		isHTMLPage := path == "/" || path == "" || strings.HasSuffix(path, "/") || strings.HasSuffix(path, ".html")
		if !isHTMLPage {
			next.ServeHTTP(w, r)
			return
		}

		injector := &scriptInjector{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(injector, r)
		injector.finalize()
	})
}

// scriptInjector buffers HTML responses up to a size limit so the script tag
// can be inserted before the response is flushed. Oversized or non-HTML
// responses pass through untouched.
type scriptInjector struct {
	http.ResponseWriter
	statusCode    int
	buffer        []byte
	headerWritten bool
	passthrough   bool
}

func (l *scriptInjector) WriteHeader(code int) {
	l.statusCode = code
	if l.passthrough {
		l.ResponseWriter.WriteHeader(code)
		l.headerWritten = true
	}
}

func (l *scriptInjector) Write(data []byte) (int, error) {
	if !l.headerWritten && !l.passthrough && l.buffer == nil {
		contentType := l.ResponseWriter.Header().Get("Content-Type")
		isHTML := contentType == "" || strings.Contains(contentType, "text/html")
		if !isHTML {
			l.passthrough = true
			l.ResponseWriter.WriteHeader(l.statusCode)
			l.headerWritten = true
			return l.ResponseWriter.Write(data)
		}
		l.buffer = make([]byte, 0, 64*1024)
	}

	if l.passthrough {
		return l.ResponseWriter.Write(data)
	}

	if len(l.buffer)+len(data) > injectorMaxSize {
		l.passthrough = true
		l.ResponseWriter.Header().Del("Content-Length")
		l.ResponseWriter.WriteHeader(l.statusCode)
		l.headerWritten = true
		if len(l.buffer) > 0 {
			if _, err := l.ResponseWriter.Write(l.buffer); err != nil {
				return 0, err
			}
			l.buffer = nil
		}
		return l.ResponseWriter.Write(data)
	}

	l.buffer = append(l.buffer, data...)
	return len(data), nil
}

// finalize injects the script tag and flushes the buffered response.
func (l *scriptInjector) finalize() {
	if l.passthrough || len(l.buffer) == 0 {
		if !l.headerWritten {
			l.ResponseWriter.WriteHeader(l.statusCode)
		}
		return
	}

	modified := injectScript(l.buffer)
	l.ResponseWriter.Header().Del("Content-Length")
	l.ResponseWriter.WriteHeader(l.statusCode)
	_, _ = l.ResponseWriter.Write(modified)
}

// injectScript inserts the livereload script tag before the document's
// closing body tag. The HTML tokenizer finds the real end tag, so "</body>"
// appearing inside scripts or comments is not a false insertion point. When
// no closing body tag exists the script is appended to the document.
func injectScript(doc []byte) []byte {
	offset := bodyEndOffset(doc)
	if offset < 0 {
		out := make([]byte, 0, len(doc)+len(scriptTag))
		out = append(out, doc...)
		return append(out, []byte(scriptTag)...)
	}
	out := make([]byte, 0, len(doc)+len(scriptTag))
	out = append(out, doc[:offset]...)
	out = append(out, []byte(scriptTag)...)
	return append(out, doc[offset:]...)
}

// bodyEndOffset returns the byte offset where </body> begins, or -1.
func bodyEndOffset(doc []byte) int {
	tokenizer := html.NewTokenizer(bytes.NewReader(doc))
	consumed := 0
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			return -1
		}
		raw := tokenizer.Raw()
		if tt == html.EndTagToken {
			name, _ := tokenizer.TagName()
			if string(name) == "body" {
				return consumed
			}
		}
		consumed += len(raw)
	}
}
