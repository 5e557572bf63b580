package response

import (
	"errors"
	"fmt"
	"net/http"
)

type Error interface {
	HTTPStatusCode() int
	Error() string
}

type ErrorResp struct {
	code int
	err  string
}

// WrapError converts any error into a response.
// Errors that don't carry a status code become a 500.
func WrapError(e error) *ErrorResp {
	if err, ok := e.(*ErrorResp); ok {
		return err
	}
	resp := &ErrorResp{
		err:  e.Error(),
		code: http.StatusInternalServerError,
	}
	if err := Error(nil); errors.As(e, &err) {
		resp.code = err.HTTPStatusCode()
	}
	return resp
}

func NewError(code int, err string) *ErrorResp {
	return &ErrorResp{
		code: code,
		err:  err,
	}
}

func Errorf(code int, format string, a ...interface{}) *ErrorResp {
	return &ErrorResp{
		code: code,
		err:  fmt.Sprintf(format, a...),
	}
}

func (r *ErrorResp) Error() string {
	return r.err
}

func (r *ErrorResp) HTTPStatusCode() int {
	return r.code
}

func (r *ErrorResp) Code() int {
	return r.code
}

func (r *ErrorResp) Close() {
}

func (r *ErrorResp) Body() ([]byte, error) {
	return []byte(r.err), nil
}

func (r *ErrorResp) Headers() (headers map[string]string) {
	headers = map[string]string{"content-type": "text/plain"}
	return headers
}

const HttpClientClosedRequest = 499

var RequestCanceledErr = NewError(HttpClientClosedRequest, "request canceled")
