package roomerr

import (
	"context"
	"net/http"

	"github.com/tidegate/roomforge/internal/util/idgen"
)

type reqIDKey struct{}

// WrapRequestContext stamps ctx with a freshly generated request id, so a
// handler and the middleware logging around it can correlate the same
// request without threading an id through every call by hand.
func WrapRequestContext(parent context.Context) context.Context {
	return context.WithValue(parent, reqIDKey{}, idgen.ID())
}

// WrapRequest is WrapRequestContext applied to an *http.Request's own
// context.
func WrapRequest(req *http.Request) *http.Request {
	return req.WithContext(WrapRequestContext(req.Context()))
}

// ExtractReqID reads back the id WrapRequestContext stamped, or "" if ctx
// was never wrapped.
func ExtractReqID(ctx context.Context) string {
	val := ctx.Value(reqIDKey{})
	if val == nil {
		return ""
	}
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
