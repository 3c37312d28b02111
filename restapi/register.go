// Package restapi surfaces a registry over HTTP with gin.
package restapi

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// HTTPVerb enumerates supported HTTP operations.
type HTTPVerb int

const (
	// Unknown represents an unspecified HTTP verb.
	Unknown HTTPVerb = iota
	// GET lists or retrieves resources.
	GET
	// GET_ONE retrieves a single resource.
	GET_ONE
	// DELETE removes resources.
	DELETE
	// POST creates resources.
	POST
	// PUT replaces resources.
	PUT
	// PATCH partially updates resources.
	PATCH
)

// RestMethod describes a REST route handler.
type RestMethod struct {
	Verb    HTTPVerb
	Path    string
	Handler gin.HandlerFunc
}

// Methods is a set of REST methods keyed by verb+path.
type Methods struct {
	m map[string]RestMethod
}

// NewMethods returns an empty method set.
func NewMethods() *Methods {
	return &Methods{m: make(map[string]RestMethod)}
}

// RegisterMethod builds a RestMethod and registers it using Register.
func (ms *Methods) RegisterMethod(verb HTTPVerb, path string, h gin.HandlerFunc) error {
	return ms.Register(RestMethod{
		Verb:    verb,
		Path:    path,
		Handler: h,
	})
}

// Register inserts a RestMethod into the set preventing duplicates.
func (ms *Methods) Register(m RestMethod) error {
	key := fmt.Sprintf("%d_%s", m.Verb, m.Path)
	if _, exists := ms.m[key]; exists {
		return fmt.Errorf("can't add %s, an existing handler in REST method map exists", key)
	}
	ms.m[key] = m
	return nil
}

// RestMethods returns all registered RestMethod entries keyed by verb+path.
func (ms *Methods) RestMethods() map[string]RestMethod {
	return ms.m
}

// Bind adds every method to r, each behind the given middleware.
func (ms *Methods) Bind(r gin.IRoutes, middleware ...gin.HandlerFunc) error {
	for _, rm := range ms.m {
		handlers := append(append([]gin.HandlerFunc{}, middleware...), rm.Handler)
		switch rm.Verb {
		case GET, GET_ONE:
			r.GET(rm.Path, handlers...)
		case DELETE:
			r.DELETE(rm.Path, handlers...)
		case POST:
			r.POST(rm.Path, handlers...)
		case PUT:
			r.PUT(rm.Path, handlers...)
		case PATCH:
			r.PATCH(rm.Path, handlers...)
		default:
			return fmt.Errorf("HTTP verb %d not supported", rm.Verb)
		}
	}
	return nil
}
