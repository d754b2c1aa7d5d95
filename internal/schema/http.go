package schema

import (
	"strings"

	json "github.com/goccy/go-json"

	"github.com/buswatch/buswatch/errs"
)

// HTTPObject carries an HTTP request or response over the bus. The transport
// publishes requests; handlers respond with a response-shaped object.
type HTTPObject struct {
	Method      string
	Path        string
	ContentType string
	Status      int
	Headers     map[string]string
	Body        []byte
}

// NewHTTPRequest builds a request object for the given method and path.
func NewHTTPRequest(method, path string) *HTTPObject {
	obj := new(HTTPObject)
	obj.Method = strings.ToUpper(strings.TrimSpace(method))
	obj.Path = path
	obj.Headers = make(map[string]string)
	return obj
}

// WithBody attaches a request body and content type.
func (h *HTTPObject) WithBody(body []byte, contentType string) *HTTPObject {
	h.Body = body
	h.ContentType = contentType
	return h
}

// BodyAsJSON decodes the body into v.
func (h *HTTPObject) BodyAsJSON(v any) error {
	if len(h.Body) == 0 {
		return errs.New("schema/http", errs.CodeInvalid, errs.WithMessage("empty body"))
	}
	if err := json.Unmarshal(h.Body, v); err != nil {
		return errs.New("schema/http", errs.CodeInvalid, errs.WithCause(err))
	}
	return nil
}

// BodyAsString returns the body as text.
func (h *HTTPObject) BodyAsString() string {
	return string(h.Body)
}

// Header returns the named header, empty when absent.
func (h *HTTPObject) Header(key string) string {
	if h.Headers == nil {
		return ""
	}
	return h.Headers[key]
}

// SetHeader sets a header value, allocating the map on first use.
func (h *HTTPObject) SetHeader(key, value string) *HTTPObject {
	if h.Headers == nil {
		h.Headers = make(map[string]string)
	}
	h.Headers[key] = value
	return h
}
