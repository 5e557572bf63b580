package errors

import (
	"fmt"
	"net/http"
	"testing"
)

type httpError interface {
	HTTPStatusCode() int
	Error() string
}

func TestStatusCodes(t *testing.T) {
	cases := []struct {
		err  httpError
		code int
	}{
		{NewBadRequest("bad"), http.StatusBadRequest},
		{NewInternal("internal"), http.StatusInternalServerError},
		{NewUnauthorized("who are you"), http.StatusUnauthorized},
		{NewUnavailable("later"), http.StatusServiceUnavailable},
	}
	for _, c := range cases {
		if c.err.HTTPStatusCode() != c.code {
			t.Errorf("%T: expected code %d, got %d", c.err, c.code, c.err.HTTPStatusCode())
		}
		if msg := fmt.Sprint(c.err); msg != c.err.Error() {
			t.Errorf("%T: unexpected message %q", c.err, msg)
		}
	}
}
