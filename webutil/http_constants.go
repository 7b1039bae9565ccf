package webutil

const (
	// Header Keys
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderCacheControl  = "Cache-Control"

	// Content Types
	ContentTypeTextPlainUTF8 = "text/plain; charset=utf-8"
	// ContentTypeHTMLUTF8 is sent byte-for-byte; clients match on it exactly.
	ContentTypeHTMLUTF8 = "text/html;charset=UTF-8"
)
