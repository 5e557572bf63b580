package middleware

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/grafana/metersummary/api/response"
	"github.com/grafana/metersummary/errors"
)

// RequireToken requires a bearer JWT signed with secret using HS256.
// With an empty secret, all requests are let through.
func RequireToken(secret []byte) func(*Context) {
	return func(c *Context) {
		if len(secret) == 0 {
			return
		}
		sub, err := parseToken(c.Req.Header.Get("Authorization"), secret)
		if err != nil {
			response.Write(c, response.WrapError(err))
			return
		}
		c.Subject = sub
	}
}

func parseToken(header string, secret []byte) (string, error) {
	if !strings.HasPrefix(header, "Bearer ") {
		return "", errors.NewUnauthorized("bearer token required")
	}
	tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if tokenString == "" {
		return "", errors.NewUnauthorized("bearer token required")
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &jwt.RegisteredClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return "", errors.NewUnauthorized("invalid token: " + err.Error())
	}
	if !token.Valid {
		return "", errors.NewUnauthorized("invalid token")
	}
	return claims.Subject, nil
}
