package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/grafana/metersummary/dispatch"
	"github.com/grafana/metersummary/input"
	"github.com/grafana/metersummary/mdata"
	"github.com/grafana/metersummary/meter"
	"github.com/grafana/metersummary/report"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/tinylib/msgp/msgp"
)

type fakeIngester struct {
	status   report.Status
	interval uint32
}

func (f *fakeIngester) Status(ctx context.Context) (report.Status, error) {
	st := f.status
	st.Interval = f.interval
	return st, nil
}

func (f *fakeIngester) SetReportInterval(ctx context.Context, seconds uint32) (bool, error) {
	if !report.ValidInterval(seconds) {
		return false, nil
	}
	f.interval = seconds
	return true, nil
}

type fakeSink struct {
	full    bool
	samples []meter.Sample
}

func (f *fakeSink) Submit(s meter.Sample) bool {
	if f.full {
		return false
	}
	f.samples = append(f.samples, s)
	return true
}

type fakeQueue int

func (q fakeQueue) QueueLen() int { return int(q) }

type testEnv struct {
	srv      *Server
	ts       *httptest.Server
	ingester *fakeIngester
	sink     *fakeSink
	history  *dispatch.History
}

func newTestEnv(t *testing.T, secret string) *testEnv {
	srv, err := NewServer()
	if err != nil {
		t.Fatalf("NewServer: %s", err)
	}
	srv.authSecret = []byte(secret)

	env := &testEnv{
		srv:      srv,
		ingester: &fakeIngester{interval: 60, status: report.Status{Armed: true, Count: 3}},
		sink:     &fakeSink{},
	}
	env.history, err = dispatch.NewHistory(10)
	if err != nil {
		t.Fatalf("NewHistory: %s", err)
	}
	latest := &input.Latest{}
	srv.BindIngester(env.ingester)
	srv.BindReads(input.NewDefaultHandler(env.sink, latest, "http"), latest)
	srv.BindHistory(env.history)
	srv.BindQueue(fakeQueue(2))
	srv.RegisterRoutes()
	env.ts = httptest.NewServer(srv.Macaron)
	return env
}

func (e *testEnv) Close() {
	e.srv.Stream.Close()
	e.ts.Close()
}

func readBody(t *testing.T, resp *http.Response) []byte {
	defer resp.Body.Close()
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %s", err)
	}
	return body
}

func validRead() []byte {
	s := meter.NewSample(
		meter.Phase{230, 1, 200, -10, 0.9},
		meter.Phase{231, 1, 200, -10, 0.9},
		meter.Phase{229, 1, 200, -10, 0.9},
		50,
	)
	b, _ := json.Marshal(meter.NewRead("2021-05-01T10:00:00", s))
	return b
}

func TestStatusEndpoints(t *testing.T) {
	Convey("Given an api server", t, func() {
		env := newTestEnv(t, "")
		defer env.Close()

		Convey("the root returns OK", func() {
			resp, err := http.Get(env.ts.URL + "/")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, 200)
			So(string(readBody(t, resp)), ShouldEqual, "OK")
		})

		Convey("status reports window state and queue length", func() {
			resp, err := http.Get(env.ts.URL + "/status")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, 200)
			var st map[string]interface{}
			So(json.Unmarshal(readBody(t, resp), &st), ShouldBeNil)
			So(st["armed"], ShouldEqual, true)
			So(st["count"], ShouldEqual, 3)
			So(st["interval"], ShouldEqual, 60)
			So(st["queueLength"], ShouldEqual, 2)
		})
	})
}

func TestReads(t *testing.T) {
	Convey("Given an api server", t, func() {
		env := newTestEnv(t, "")
		defer env.Close()

		Convey("there is no latest read yet", func() {
			resp, err := http.Get(env.ts.URL + "/reads/latest")
			So(err, ShouldBeNil)
			readBody(t, resp)
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("a valid read is accepted and becomes the latest", func() {
			resp, err := http.Post(env.ts.URL+"/reads", "application/json", bytes.NewReader(validRead()))
			So(err, ShouldBeNil)
			readBody(t, resp)
			So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
			So(env.sink.samples, ShouldHaveLength, 1)

			resp, err = http.Get(env.ts.URL + "/reads/latest")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, 200)
			So(string(readBody(t, resp)), ShouldContainSubstring, `"readTimeLocal":"2021-05-01T10:00:00"`)
		})

		Convey("an incomplete read is refused", func() {
			resp, err := http.Post(env.ts.URL+"/reads", "application/json", strings.NewReader(`{"powerQuality":{"voltageA":230}}`))
			So(err, ShouldBeNil)
			readBody(t, resp)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			So(env.sink.samples, ShouldHaveLength, 0)
		})

		Convey("a read is refused with 503 when the ingest buffer is full", func() {
			env.sink.full = true
			resp, err := http.Post(env.ts.URL+"/reads", "application/json", bytes.NewReader(validRead()))
			So(err, ShouldBeNil)
			readBody(t, resp)
			So(resp.StatusCode, ShouldEqual, http.StatusServiceUnavailable)
		})
	})
}

func postInterval(t *testing.T, url, body, token string) *http.Response {
	req, err := http.NewRequest("POST", url+"/reportInterval", strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %s", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post: %s", err)
	}
	return resp
}

func TestReportInterval(t *testing.T) {
	Convey("Given an api server without auth", t, func() {
		env := newTestEnv(t, "")
		defer env.Close()

		Convey("the current interval can be read", func() {
			resp, err := http.Get(env.ts.URL + "/reportInterval")
			So(err, ShouldBeNil)
			So(string(readBody(t, resp)), ShouldEqual, `{"seconds":60}`)
		})
		Convey("a valid interval is applied", func() {
			resp := postInterval(t, env.ts.URL, `{"seconds":300}`, "")
			So(string(readBody(t, resp)), ShouldEqual, `{"seconds":300}`)
			So(resp.StatusCode, ShouldEqual, 200)
			So(env.ingester.interval, ShouldEqual, 300)
		})
		Convey("an out of range interval is refused", func() {
			resp := postInterval(t, env.ts.URL, `{"seconds":1}`, "")
			readBody(t, resp)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			So(env.ingester.interval, ShouldEqual, 60)

			resp = postInterval(t, env.ts.URL, `{"seconds":0}`, "")
			readBody(t, resp)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})

	Convey("Given an api server with auth", t, func() {
		env := newTestEnv(t, "s3cr3t")
		defer env.Close()

		Convey("changes without a token are refused", func() {
			resp := postInterval(t, env.ts.URL, `{"seconds":300}`, "")
			readBody(t, resp)
			So(resp.StatusCode, ShouldEqual, http.StatusUnauthorized)
			So(env.ingester.interval, ShouldEqual, 60)
		})
		Convey("changes with a valid token are applied", func() {
			tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
				Subject:   "operator",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			}).SignedString([]byte("s3cr3t"))
			So(err, ShouldBeNil)
			resp := postInterval(t, env.ts.URL, `{"seconds":120}`, tok)
			readBody(t, resp)
			So(resp.StatusCode, ShouldEqual, 200)
			So(env.ingester.interval, ShouldEqual, 120)
		})
		Convey("reading the interval needs no token", func() {
			resp, err := http.Get(env.ts.URL + "/reportInterval")
			So(err, ShouldBeNil)
			readBody(t, resp)
			So(resp.StatusCode, ShouldEqual, 200)
		})
	})
}

func TestSummaries(t *testing.T) {
	Convey("Given an api server with three delivered summaries", t, func() {
		env := newTestEnv(t, "")
		defer env.Close()
		for _, start := range []int64{60, 120, 180} {
			env.history.Dispatched(&mdata.Summary{Count: 2, Start: start, End: start + 59}, nil)
		}

		Convey("json lists them oldest first", func() {
			resp, err := http.Get(env.ts.URL + "/summaries")
			So(err, ShouldBeNil)
			So(resp.Header.Get("Content-Type"), ShouldEqual, "application/json")
			var list []map[string]interface{}
			So(json.Unmarshal(readBody(t, resp), &list), ShouldBeNil)
			So(list, ShouldHaveLength, 3)
			So(list[0]["ts"], ShouldEqual, 60)
			So(list[2]["ts"], ShouldEqual, 180)
		})

		Convey("limit keeps the most recent", func() {
			resp, err := http.Get(env.ts.URL + "/summaries?limit=1")
			So(err, ShouldBeNil)
			var list []map[string]interface{}
			So(json.Unmarshal(readBody(t, resp), &list), ShouldBeNil)
			So(list, ShouldHaveLength, 1)
			So(list[0]["ts"], ShouldEqual, 180)
		})

		Convey("msgp is supported", func() {
			resp, err := http.Get(env.ts.URL + "/summaries?format=msgp")
			So(err, ShouldBeNil)
			So(resp.Header.Get("Content-Type"), ShouldEqual, "application/msgpack")
			body := readBody(t, resp)
			n, body, err := msgp.ReadArrayHeaderBytes(body)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 3)
			var s mdata.Summary
			_, err = s.UnmarshalMsg(body)
			So(err, ShouldBeNil)
			So(s.Start, ShouldEqual, 60)
			So(s.Count, ShouldEqual, 2)
		})

		Convey("pickle is supported", func() {
			resp, err := http.Get(env.ts.URL + "/summaries?format=pickle")
			So(err, ShouldBeNil)
			readBody(t, resp)
			So(resp.StatusCode, ShouldEqual, 200)
			So(resp.Header.Get("Content-Type"), ShouldEqual, "application/pickle")
		})

		Convey("unknown formats are refused", func() {
			resp, err := http.Get(env.ts.URL + "/summaries?format=xml")
			So(err, ShouldBeNil)
			readBody(t, resp)
			So(resp.StatusCode, ShouldBeGreaterThanOrEqualTo, 400)
		})
	})
}

func TestSummaryStream(t *testing.T) {
	Convey("Given an api server with a connected stream client", t, func() {
		env := newTestEnv(t, "")
		defer env.Close()

		wsURL := "ws" + strings.TrimPrefix(env.ts.URL, "http") + "/summaries/stream"
		conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
		So(err, ShouldBeNil)
		defer conn.Close()
		if resp != nil {
			resp.Body.Close()
		}

		// the subscription happens right after the upgrade, on the server side
		deadline := time.Now().Add(2 * time.Second)
		for env.srv.Stream.Clients() == 0 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		So(env.srv.Stream.Clients(), ShouldEqual, 1)

		Convey("delivered summaries are pushed, failed ones are not", func() {
			env.srv.Stream.Dispatched(&mdata.Summary{Count: 1, Start: 60, End: 119}, errFake)
			env.srv.Stream.Dispatched(&mdata.Summary{Count: 4, Start: 120, End: 179}, nil)

			conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			_, data, err := conn.ReadMessage()
			So(err, ShouldBeNil)
			var s map[string]interface{}
			So(json.Unmarshal(data, &s), ShouldBeNil)
			So(s["ts"], ShouldEqual, 120)
			So(s["n"], ShouldEqual, 4)
		})

		Convey("closing the stream disconnects the client", func() {
			env.srv.Stream.Close()
			conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			_, _, err := conn.ReadMessage()
			So(websocket.IsCloseError(err, websocket.CloseGoingAway), ShouldBeTrue)
		})
	})
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }

var errFake = fakeErr("publish failed")
