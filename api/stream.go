package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/grafana/metersummary/api/middleware"
	"github.com/grafana/metersummary/mdata"
	"github.com/grafana/metersummary/stats"
	log "github.com/sirupsen/logrus"
)

const (
	streamSendBuffer = 16
	streamWriteWait  = 10 * time.Second
)

var (
	// metric api.stream.clients is the number of connected summary stream clients
	streamClients = stats.NewGauge32("api.stream.clients")
	// metric api.stream.dropped is how many summaries were not sent to a client that fell behind
	streamDropped = stats.NewCounter32("api.stream.dropped")
)

// Stream pushes every delivered summary to the connected websocket clients.
// It implements dispatch.Observer.
type Stream struct {
	upgrader websocket.Upgrader

	sync.Mutex
	clients map[chan []byte]struct{}
	closed  bool
}

func NewStream() *Stream {
	return &Stream{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[chan []byte]struct{}),
	}
}

// Dispatched sends s to all clients. Failed deliveries are not streamed.
// Clients whose buffer is full miss the summary.
func (st *Stream) Dispatched(s *mdata.Summary, err error) {
	if err != nil {
		return
	}
	data, err := s.MarshalJSONFast(nil)
	if err != nil {
		log.Errorf("API: failed to encode summary for streaming: %s", err.Error())
		return
	}
	st.Lock()
	defer st.Unlock()
	for c := range st.clients {
		select {
		case c <- data:
		default:
			streamDropped.Inc()
		}
	}
}

func (st *Stream) subscribe() (chan []byte, bool) {
	st.Lock()
	defer st.Unlock()
	if st.closed {
		return nil, false
	}
	c := make(chan []byte, streamSendBuffer)
	st.clients[c] = struct{}{}
	streamClients.Set(len(st.clients))
	return c, true
}

func (st *Stream) unsubscribe(c chan []byte) {
	st.Lock()
	defer st.Unlock()
	if _, ok := st.clients[c]; ok {
		delete(st.clients, c)
		close(c)
	}
	streamClients.Set(len(st.clients))
}

// Close disconnects all clients and refuses new ones
func (st *Stream) Close() {
	st.Lock()
	defer st.Unlock()
	st.closed = true
	for c := range st.clients {
		delete(st.clients, c)
		close(c)
	}
	streamClients.Set(0)
}

// Clients returns the number of connected clients
func (st *Stream) Clients() int {
	st.Lock()
	defer st.Unlock()
	return len(st.clients)
}

func (s *Server) streamSummaries(ctx *middleware.Context) {
	s.Stream.serve(ctx.Resp, ctx.Req.Request)
}

func (st *Stream) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := st.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already replied with an error
		log.Debugf("API: stream upgrade failed: %s", err.Error())
		return
	}
	defer conn.Close()

	c, ok := st.subscribe()
	if !ok {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		return
	}

	// we don't expect messages from clients, but need to read to notice them leaving
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer st.unsubscribe(c)
	for {
		select {
		case data, ok := <-c:
			if !ok {
				conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(streamWriteWait))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-gone:
			return
		}
	}
}
