package roomerr

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPError is the error family for the module's plain HTTP surface (the
// room listing/status endpoints), as opposed to Error's WebSocket
// handshake/protocol rejections: a status code, a message, and any
// headers the response needs (e.g. Location, WWW-Authenticate).
type HTTPError struct {
	code    int
	message string
	headers map[string][]string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error %v: %v", e.code, e.message)
}

func (e *HTTPError) Code() int       { return e.code }
func (e *HTTPError) Message() string { return e.message }

func (e *HTTPError) ApplyHeaders(w http.ResponseWriter) {
	if e.headers == nil {
		return
	}
	for k, vs := range e.headers {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
}

// NewHTTPError builds a plain status+message HTTPError.
func NewHTTPError(code int, message string) error {
	return &HTTPError{code: code, message: message}
}

// NewRedirectError builds a 3xx HTTPError carrying a Location header;
// non-redirect codes fall back to NewHTTPError.
func NewRedirectError(code int, message string, location string) error {
	if !(300 <= code && code <= 399) {
		return NewHTTPError(code, message)
	}
	return &HTTPError{
		code:    code,
		message: message,
		headers: map[string][]string{
			"Location": {location},
		},
	}
}

// NewAuthError builds a 401 HTTPError carrying a WWW-Authenticate header.
func NewAuthError(message string, scheme string) error {
	return &HTTPError{
		code:    http.StatusUnauthorized,
		message: message,
		headers: map[string][]string{"WWW-Authenticate": {scheme}},
	}
}

// HTTPErrorFromResponse turns a non-2xx http.Response into an HTTPError,
// reading its body as the message.
func HTTPErrorFromResponse(rsp *http.Response) error {
	if 200 <= rsp.StatusCode && rsp.StatusCode <= 299 {
		return nil
	}
	var b strings.Builder
	_, err := io.Copy(&b, rsp.Body)
	return errors.Join(NewHTTPError(rsp.StatusCode, b.String()), err)
}

// WriteHTTPError writes err to w: its status/headers/message if err wraps
// an *HTTPError, or a generic 500 otherwise.
func WriteHTTPError(err error, w http.ResponseWriter) error {
	var (
		httpErr *HTTPError
		code    int
		message string
	)
	if errors.As(err, &httpErr) {
		code = httpErr.code
		message = httpErr.message
	} else {
		code = http.StatusInternalServerError
		message = fmt.Sprintf("internal server error: %v", err)
	}
	w.Header().Set("Content-Type", "text/plain")
	if httpErr != nil {
		httpErr.ApplyHeaders(w)
	}
	w.WriteHeader(code)
	if _, err := io.WriteString(w, message); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}
