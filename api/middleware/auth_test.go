package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/smartystreets/goconvey/convey"
	"gopkg.in/macaron.v1"
)

var secret = []byte("s3cr3t")

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.RegisteredClaims) string {
	tok, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %s", err)
	}
	return tok
}

func newAuthServer(secret []byte) *macaron.Macaron {
	m := macaron.New()
	m.Use(macaron.Renderer())
	m.Use(Contexter())
	m.Post("/protected", RequireToken(secret), func(c *Context) {
		c.PlainText(200, []byte("hello "+c.Subject))
	})
	return m
}

func do(m *macaron.Macaron, auth string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("POST", "/protected", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	m.ServeHTTP(w, req)
	return w
}

func TestRequireToken(t *testing.T) {
	Convey("Given a server with token auth", t, func() {
		m := newAuthServer(secret)
		future := jwt.NewNumericDate(time.Now().Add(time.Hour))

		Convey("a valid HS256 token is accepted", func() {
			tok := sign(t, jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{Subject: "operator", ExpiresAt: future})
			w := do(m, "Bearer "+tok)
			So(w.Code, ShouldEqual, 200)
			So(w.Body.String(), ShouldEqual, "hello operator")
		})
		Convey("a missing token is refused", func() {
			So(do(m, "").Code, ShouldEqual, http.StatusUnauthorized)
		})
		Convey("a token signed with another secret is refused", func() {
			tok := sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.RegisteredClaims{ExpiresAt: future})
			So(do(m, "Bearer "+tok).Code, ShouldEqual, http.StatusUnauthorized)
		})
		Convey("a token with another algorithm is refused", func() {
			tok := sign(t, jwt.SigningMethodHS512, secret, jwt.RegisteredClaims{ExpiresAt: future})
			So(do(m, "Bearer "+tok).Code, ShouldEqual, http.StatusUnauthorized)
		})
		Convey("an expired token is refused", func() {
			past := jwt.NewNumericDate(time.Now().Add(-time.Hour))
			tok := sign(t, jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{ExpiresAt: past})
			So(do(m, "Bearer "+tok).Code, ShouldEqual, http.StatusUnauthorized)
		})
	})
	Convey("Without a secret everything is let through", t, func() {
		So(do(newAuthServer(nil), "").Code, ShouldEqual, 200)
	})
}
