package api

import (
	"github.com/go-macaron/binding"
	"github.com/gorilla/websocket"
	"github.com/grafana/metersummary/api/middleware"
	"github.com/grafana/metersummary/api/models"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/raintank/gziper"
	macaron "gopkg.in/macaron.v1"
)

func (s *Server) RegisterRoutes() {
	r := s.Macaron
	if useGzip {
		r.Use(skipUpgrades(gziper.Gziper()))
	}
	r.Use(middleware.RequestStats())
	r.Use(macaron.Renderer())
	r.Use(middleware.Contexter())
	r.Use(middleware.Logger())
	r.Use(middleware.CorsHandler())

	bind := binding.Bind
	withToken := middleware.RequireToken(s.authSecret)

	r.Get("/", s.appStatus)
	r.Get("/status", s.getStatus)
	r.Post("/reads", s.postRead)
	r.Get("/reads/latest", s.getLatestRead)
	r.Get("/reportInterval", s.getReportInterval)
	r.Post("/reportInterval", withToken, bind(models.ReportInterval{}), s.setReportInterval)
	r.Get("/summaries", bind(models.Summaries{}), s.getSummaries)
	r.Get("/summaries/stream", s.streamSummaries)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Options("/*", func(ctx *macaron.Context) {
		ctx.Write(nil)
	})
}

// skipUpgrades runs h for all requests except websocket upgrades,
// which need a writer that can be hijacked.
func skipUpgrades(h macaron.Handler) macaron.Handler {
	return func(ctx *macaron.Context) {
		if websocket.IsWebSocketUpgrade(ctx.Req.Request) {
			return
		}
		if _, err := ctx.Invoke(h); err != nil {
			panic(err)
		}
	}
}
