package api

import (
	"net/http"

	"github.com/grafana/metersummary/api/middleware"
	"github.com/grafana/metersummary/api/models"
	"github.com/grafana/metersummary/api/response"
	"github.com/grafana/metersummary/errors"
	"github.com/grafana/metersummary/report"
	log "github.com/sirupsen/logrus"
	macaron "gopkg.in/macaron.v1"
)

func (s *Server) appStatus(ctx *macaron.Context) {
	ctx.PlainText(200, []byte("OK"))
}

func (s *Server) getStatus(ctx *middleware.Context) {
	st, err := s.Ingester.Status(ctx.Req.Context())
	if err != nil {
		response.Write(ctx, response.WrapError(err))
		return
	}
	resp := models.Status{
		Armed:       st.Armed,
		Count:       st.Count,
		WindowStart: st.WindowStart,
		WindowEnd:   st.WindowEnd,
		NextClose:   st.NextClose,
		Interval:    st.Interval,
	}
	if s.Queue != nil {
		resp.QueueLen = s.Queue.QueueLen()
	}
	response.Write(ctx, response.NewJson(200, resp))
}

func (s *Server) getReportInterval(ctx *middleware.Context) {
	st, err := s.Ingester.Status(ctx.Req.Context())
	if err != nil {
		response.Write(ctx, response.WrapError(err))
		return
	}
	response.Write(ctx, response.NewJson(200, models.ReportIntervalResp{Seconds: st.Interval}))
}

func (s *Server) setReportInterval(ctx *middleware.Context, req models.ReportInterval) {
	if !report.ValidInterval(req.Seconds) {
		response.Write(ctx, response.WrapError(errors.NewBadRequest("seconds out of range")))
		return
	}
	ok, err := s.Ingester.SetReportInterval(ctx.Req.Context(), req.Seconds)
	if err != nil {
		response.Write(ctx, response.WrapError(err))
		return
	}
	if !ok {
		response.Write(ctx, response.NewError(http.StatusBadRequest, "seconds out of range"))
		return
	}
	log.Infof("API: report interval set to %ds by %q", req.Seconds, ctx.Subject)
	response.Write(ctx, response.NewJson(200, models.ReportIntervalResp{Seconds: req.Seconds}))
}
