package webutil

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// AppHandler represents a handler function that returns an error.
type AppHandler func(w http.ResponseWriter, r *http.Request) error

// MakeHandler adapts an AppHandler to the standard http.HandlerFunc signature.
// It executes the AppHandler and handles any returned error by logging appropriately
// and sending a plain-text error response.
func MakeHandler(handler AppHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ww, ok := w.(middleware.WrapResponseWriter)
		if !ok {
			ww = middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		}

		err := handler(ww, r)
		if err == nil {
			// The handler wrote its own successful response.
			return
		}

		var httpErr *HTTPError
		var publicMessage string
		var statusCode int

		switch {
		case errors.As(err, &httpErr):
			statusCode = httpErr.Code
			publicMessage = httpErr.Message
			logLevel := slog.LevelWarn // Treat client errors as warnings server-side
			if statusCode >= 500 {
				logLevel = slog.LevelError
			}
			// Log the underlying cause if present and different from the public message
			cause := errors.Unwrap(httpErr)
			if cause != nil && cause.Error() != publicMessage {
				slog.Log(r.Context(), logLevel, "Client error response",
					"code", httpErr.Code,
					"msg", httpErr.Message,
					"cause", cause,
					"path", r.URL.Path,
					"method", r.Method,
					"request_id", middleware.GetReqID(r.Context()),
				)
			} else {
				slog.Log(r.Context(), logLevel, "Client error response",
					"code", httpErr.Code,
					"msg", httpErr.Message,
					"path", r.URL.Path,
					"method", r.Method,
					"request_id", middleware.GetReqID(r.Context()),
				)
			}

		default:
			// Any other error is treated as an internal server error
			statusCode = http.StatusInternalServerError
			publicMessage = msgInternalServer
			slog.ErrorContext(r.Context(), "Unhandled internal error",
				"path", r.URL.Path,
				"method", r.Method,
				"request_id", middleware.GetReqID(r.Context()),
				"error", err,
			)
		}

		if HasResponseWriterSentHeader(ww) {
			slog.WarnContext(r.Context(), "Handler returned error after writing response header",
				"path", r.URL.Path,
				"method", r.Method,
				"error", err,
			)
			// Cannot send another response, just log.
			return
		}

		RespondWithText(ww, statusCode, publicMessage)
	}
}

// HasResponseWriterSentHeader reports whether a status line has gone out.
func HasResponseWriterSentHeader(w middleware.WrapResponseWriter) bool {
	return w.Status() != 0
}
