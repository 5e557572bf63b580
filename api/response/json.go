package response

import (
	"encoding/json"
)

// Json is a response for small bodies that have no fast encoder
type Json struct {
	code int
	body interface{}
}

func NewJson(code int, body interface{}) *Json {
	return &Json{
		code: code,
		body: body,
	}
}

func (r *Json) Code() int {
	return r.code
}

func (r *Json) Close() {}

func (r *Json) Body() ([]byte, error) {
	return json.Marshal(r.body)
}

func (r *Json) Headers() map[string]string {
	return map[string]string{"content-type": "application/json"}
}
