package api

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/grafana/metersummary/api/middleware"
	"github.com/grafana/metersummary/dispatch"
	"github.com/grafana/metersummary/input"
	"github.com/grafana/metersummary/report"
	log "github.com/sirupsen/logrus"
	macaron "gopkg.in/macaron.v1"
)

// Ingester is the part of report.Ingester the api needs
type Ingester interface {
	Status(ctx context.Context) (report.Status, error)
	SetReportInterval(ctx context.Context, seconds uint32) (bool, error)
}

// QueueLener reports how many summaries wait for delivery
type QueueLener interface {
	QueueLen() int
}

type Server struct {
	Addr     string
	SSL      bool
	certFile string
	keyFile  string
	Macaron  *macaron.Macaron

	Ingester Ingester
	Reads    input.Handler
	Latest   *input.Latest
	History  *dispatch.History
	Queue    QueueLener
	Stream   *Stream

	authSecret []byte
}

func (s *Server) BindIngester(i Ingester) {
	s.Ingester = i
}

func (s *Server) BindReads(h input.Handler, latest *input.Latest) {
	s.Reads = h
	s.Latest = latest
}

func (s *Server) BindHistory(h *dispatch.History) {
	s.History = h
}

func (s *Server) BindQueue(q QueueLener) {
	s.Queue = q
}

func NewServer() (*Server, error) {
	m := macaron.New()
	m.Use(macaron.Recovery())
	middleware.LogHeaders = logHeaders

	return &Server{
		Addr:       Addr,
		SSL:        UseSSL,
		certFile:   certFile,
		keyFile:    keyFile,
		Macaron:    m,
		Stream:     NewStream(),
		authSecret: []byte(authSecret),
	}, nil
}

// Run serves the api until ctx is canceled
func (s *Server) Run(ctx context.Context) error {
	s.RegisterRoutes()
	proto := "http"
	if s.SSL {
		proto = "https"
	}
	log.Infof("API Listening on: %v://%s/", proto, s.Addr)

	// define our own listener so we can call Close on it
	l, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	srv := http.Server{
		Addr:    s.Addr,
		Handler: s.Macaron,
	}
	go s.handleShutdown(ctx, &srv)

	if s.SSL {
		cert, err := tls.LoadX509KeyPair(s.certFile, s.keyFile)
		if err != nil {
			l.Close()
			return err
		}
		srv.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			NextProtos:   []string{"http/1.1"},
		}
		tlsListener := tls.NewListener(tcpKeepAliveListener{l.(*net.TCPListener)}, srv.TLSConfig)
		err = srv.Serve(tlsListener)
	} else {
		err = srv.Serve(tcpKeepAliveListener{l.(*net.TCPListener)})
	}

	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) handleShutdown(ctx context.Context, srv *http.Server) {
	<-ctx.Done()
	log.Info("API shutdown started.")
	s.Stream.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("API shutdown: %s", err.Error())
	}
}

type tcpKeepAliveListener struct {
	*net.TCPListener
}

func (ln tcpKeepAliveListener) Accept() (c net.Conn, err error) {
	tc, err := ln.AcceptTCP()
	if err != nil {
		return
	}
	tc.SetKeepAlive(true)
	tc.SetKeepAlivePeriod(3 * time.Minute)
	return tc, nil
}
