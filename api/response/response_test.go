package response

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	mserr "github.com/grafana/metersummary/errors"
	. "github.com/smartystreets/goconvey/convey"
)

type fastBody string

func (f fastBody) MarshalJSONFast(b []byte) ([]byte, error) {
	return append(b, `"`+string(f)+`"`...), nil
}

type failingBody struct{}

func (failingBody) MarshalJSONFast(b []byte) ([]byte, error) {
	return b, errors.New("cannot encode")
}

func TestWrite(t *testing.T) {
	Convey("When writing responses", t, func() {
		w := httptest.NewRecorder()
		Convey("json bodies get their code and content type", func() {
			Write(w, NewJson(201, map[string]int{"a": 1}))
			So(w.Code, ShouldEqual, 201)
			So(w.Header().Get("content-type"), ShouldEqual, "application/json")
			So(w.Body.String(), ShouldEqual, `{"a":1}`)
		})
		Convey("fast json bodies are serialized into a pooled buffer", func() {
			Write(w, NewFastJson(200, fastBody("hi")))
			So(w.Body.String(), ShouldEqual, `"hi"`)
		})
		Convey("encoding failures become a 500", func() {
			Write(w, NewFastJson(200, failingBody{}))
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(w.Body.String(), ShouldEqual, "cannot encode")
		})
	})
}

func TestWrapError(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{errors.New("plain"), http.StatusInternalServerError},
		{mserr.NewBadRequest("bad"), http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", mserr.NewUnavailable("busy")), http.StatusServiceUnavailable},
		{NewError(http.StatusTeapot, "tea"), http.StatusTeapot},
	}
	for _, c := range cases {
		resp := WrapError(c.err)
		if resp.Code() != c.code {
			t.Errorf("%v: expected code %d, got %d", c.err, c.code, resp.Code())
		}
		if body, _ := resp.Body(); string(body) != c.err.Error() {
			t.Errorf("%v: expected body %q, got %q", c.err, c.err.Error(), body)
		}
	}
}

type everyFormat string

func (e everyFormat) MarshalJSONFast(b []byte) ([]byte, error) {
	return append(b, "json:"+string(e)...), nil
}

func (e everyFormat) MarshalMsg(b []byte) ([]byte, error) {
	return append(b, "msgp:"+string(e)...), nil
}

func (e everyFormat) Pickle(b []byte) ([]byte, error) {
	return append(b, "pickle:"+string(e)...), nil
}

func TestEncoded(t *testing.T) {
	Convey("When rendering a body in a requested format", t, func() {
		cases := []struct {
			in          string
			body        string
			contentType string
		}{
			{"", "json:x", "application/json"},
			{"JSON", "json:x", "application/json"},
			{"msgp", "msgp:x", "application/msgpack"},
			{"msgpack", "msgp:x", "application/msgpack"},
			{"pickle", "pickle:x", "application/pickle"},
		}
		for _, c := range cases {
			f, ok := ParseFormat(c.in)
			So(ok, ShouldBeTrue)
			w := httptest.NewRecorder()
			Write(w, NewEncoded(200, f, everyFormat("x")))
			So(w.Code, ShouldEqual, 200)
			So(w.Header().Get("content-type"), ShouldEqual, c.contentType)
			So(w.Body.String(), ShouldEqual, c.body)
		}
		Convey("unknown formats are not resolved", func() {
			_, ok := ParseFormat("xml")
			So(ok, ShouldBeFalse)
		})
	})
}
