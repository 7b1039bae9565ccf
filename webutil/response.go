package webutil

import (
	"io"
	"net/http"
)

// RespondWithText writes body as plain text with no trailing newline.
func RespondWithText(w http.ResponseWriter, code int, body string) {
	w.Header().Set(HeaderContentType, ContentTypeTextPlainUTF8)
	w.WriteHeader(code)
	_, _ = io.WriteString(w, body)
}

// RespondWithHTML writes a complete HTML document.
func RespondWithHTML(w http.ResponseWriter, code int, document string) {
	w.Header().Set(HeaderContentType, ContentTypeHTMLUTF8)
	w.WriteHeader(code)
	_, _ = io.WriteString(w, document)
}
