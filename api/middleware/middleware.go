package middleware

import (
	"github.com/rs/cors"
	"gopkg.in/macaron.v1"
)

type Context struct {
	*macaron.Context
	// Subject is the subject of the bearer token, if the request carried a valid one
	Subject string
}

func Contexter() macaron.Handler {
	return func(c *macaron.Context) {
		ctx := &Context{
			Context: c,
		}
		c.Map(ctx)
	}
}

func CorsHandler() macaron.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "PUT", "POST", "DELETE"},
		AllowCredentials: true,
	})
	return c.HandlerFunc
}
