package restconf

import (
	"fmt"
	"net/http"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Response is a fully read HTTP response.
type Response struct {
	Method     string
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK is true for a 200 status.
func (r *Response) OK() bool {
	return r.StatusCode == http.StatusOK
}

// Value parses the body as JSON. A body that is empty or not valid JSON gives a null value.
func (r *Response) Value() ldvalue.Value {
	if len(r.Body) == 0 {
		return ldvalue.Null()
	}
	return ldvalue.Parse(r.Body)
}

// Path walks into the JSON body. Each step is either a string (object key) or an int (array
// index). Missing keys, out-of-range indexes and type mismatches give a null value.
func (r *Response) Path(steps ...interface{}) ldvalue.Value {
	return Walk(r.Value(), steps...)
}

func (r *Response) String() string {
	return fmt.Sprintf("%s %s -> %d %s", r.Method, r.URL, r.StatusCode, string(r.Body))
}

// Walk navigates a parsed JSON value the same way Response.Path does.
func Walk(v ldvalue.Value, steps ...interface{}) ldvalue.Value {
	for _, step := range steps {
		switch s := step.(type) {
		case string:
			if v.Type() != ldvalue.ObjectType {
				return ldvalue.Null()
			}
			v = v.GetByKey(s)
		case int:
			if v.Type() != ldvalue.ArrayType {
				return ldvalue.Null()
			}
			v = v.GetByIndex(s)
		default:
			return ldvalue.Null()
		}
	}
	return v
}
