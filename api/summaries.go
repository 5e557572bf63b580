package api

import (
	"github.com/grafana/metersummary/api/middleware"
	"github.com/grafana/metersummary/api/models"
	"github.com/grafana/metersummary/api/response"
)

func (s *Server) getSummaries(ctx *middleware.Context, req models.Summaries) {
	var list models.SummaryList
	if s.History != nil {
		list = models.SummaryList(s.History.Recent())
	}
	if req.Limit > 0 && len(list) > req.Limit {
		list = list[len(list)-req.Limit:]
	}

	// the binding already refused unknown formats
	f, _ := response.ParseFormat(req.Format)
	response.Write(ctx, response.NewEncoded(200, f, list))
}
