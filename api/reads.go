package api

import (
	"io/ioutil"
	"net/http"

	"github.com/grafana/metersummary/api/middleware"
	"github.com/grafana/metersummary/api/models"
	"github.com/grafana/metersummary/api/response"
	"github.com/grafana/metersummary/errors"
	"github.com/grafana/metersummary/input"
)

func (s *Server) postRead(ctx *middleware.Context) {
	body, err := ioutil.ReadAll(http.MaxBytesReader(ctx.Resp, ctx.Req.Request.Body, maxReadLen))
	if err != nil {
		response.Write(ctx, response.WrapError(errors.NewBadRequest(err.Error())))
		return
	}
	err = s.Reads.ProcessRead(body)
	if err == input.ErrBufferFull {
		response.Write(ctx, response.WrapError(errors.NewUnavailable(err.Error())))
		return
	}
	if err != nil {
		response.Write(ctx, response.WrapError(errors.NewBadRequest(err.Error())))
		return
	}
	ctx.PlainText(http.StatusAccepted, []byte("accepted"))
}

func (s *Server) getLatestRead(ctx *middleware.Context) {
	if s.Latest == nil {
		response.Write(ctx, response.NewError(http.StatusNotFound, "no read received yet"))
		return
	}
	read, received, ok := s.Latest.Get()
	if !ok {
		response.Write(ctx, response.NewError(http.StatusNotFound, "no read received yet"))
		return
	}
	response.Write(ctx, response.NewJson(200, models.LatestRead{Received: received, Read: read}))
}
