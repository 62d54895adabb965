package chi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"regexp"
)

// callbackRegex accepts JavaScript identifiers and dotted paths (jQuery.cb_123).
var callbackRegex = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*(\.[A-Za-z_$][A-Za-z0-9_$]*)*$`)

const maxCallbackLen = 128

// jsonpCallback returns the callback parameter of r, if any.
func jsonpCallback(r *http.Request) string {
	if r == nil {
		return ""
	}
	return r.URL.Query().Get("callback")
}

func validCallback(cb string) bool {
	return len(cb) <= maxCallbackLen && callbackRegex.MatchString(cb)
}

// writeJSON encodes v, wrapped in the request's JSONP callback when one was given.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"code":"internal_error","message":"internal error"}`))
		return
	}

	if cb := jsonpCallback(r); cb != "" && validCallback(cb) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte("/**/" + cb + "("))
		_, _ = w.Write(bytes.TrimRight(buf.Bytes(), "\n"))
		_, _ = w.Write([]byte(");"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// requireValidCallback rejects requests carrying a callback that is not a plain identifier.
func requireValidCallback(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cb := jsonpCallback(r); cb != "" && !validCallback(cb) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(ErrorResponse{Code: CodeBadRequest, Message: "invalid callback"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
