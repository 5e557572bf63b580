package middleware

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"
	macaron "gopkg.in/macaron.v1"
)

var (
	LogHeaders = false
)

type LoggingResponseWriter struct {
	macaron.ResponseWriter
	errBody  []byte // the body in case it is an error
	hijacked bool
}

func (rw *LoggingResponseWriter) Write(b []byte) (int, error) {
	if rw.ResponseWriter.Status() >= 400 {
		rw.errBody = make([]byte, len(b))
		copy(rw.errBody, b)
	}
	return rw.ResponseWriter.Write(b)
}

// Hijack lets websocket upgrades through the logging writer
func (rw *LoggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rw.hijacked = true
	return h.Hijack()
}

// Logger logs requests that changed state or failed
func Logger() macaron.Handler {
	return func(ctx *Context) {
		start := time.Now()
		ctx.Resp = &LoggingResponseWriter{
			ResponseWriter: ctx.Resp,
		}
		rw := ctx.Resp.(*LoggingResponseWriter)
		ctx.MapTo(ctx.Resp, (*http.ResponseWriter)(nil))
		ctx.Next()

		if rw.hijacked {
			return
		}

		// Only log:
		// - requests that resulted in errors
		// - requests that change configuration
		if rw.Status() >= 200 && rw.Status() < 300 && (ctx.Req.Method == "GET" || ctx.Req.URL.Path == "/reads") {
			return
		}

		content := fmt.Sprintf("ts=%s", time.Now().Format(time.RFC3339Nano))
		content += fmt.Sprintf(" msg=\"%s %s (%v) %v\"", ctx.Req.Method, ctx.Req.URL.Path, rw.Status(), time.Since(start))
		if ctx.Subject != "" {
			content += fmt.Sprintf(" subject=%s", ctx.Subject)
		}

		sourceIP := ctx.RemoteAddr()
		if sourceIP != "" {
			content += fmt.Sprintf(" sourceIP=\"%s\"", sourceIP)
		}

		if rw.Status() < 200 || rw.Status() >= 300 {
			if errorMsg := url.PathEscape(string(rw.errBody)); errorMsg != "" {
				content += fmt.Sprintf(" error=\"%s\"", errorMsg)
			}
		}

		if LogHeaders {
			headers, err := extractHeaders(ctx.Req.Request)
			if err != nil {
				log.Errorf("Could not extract request headers: %v", err)
			}
			if headers != "" {
				content += fmt.Sprintf(" headers=\"%s\"", headers)
			}
		}

		log.Println(colorLog(rw.Status(), content))
	}
}

func colorLog(statusCode int, log string) string {
	if statusCode >= 200 && statusCode <= 202 {
		return fmt.Sprintf("\033[1;32m%s\033[0m", log)
	} else if statusCode >= 300 {
		return fmt.Sprintf("\033[1;31m%s\033[0m", log)
	} else {
		return log
	}
}

func extractHeaders(req *http.Request) (string, error) {
	var b bytes.Buffer

	// Exclude some headers for security, or just that we don't need them when debugging
	err := req.Header.WriteSubset(&b, map[string]bool{
		"Cookie":        true,
		"X-Csrf-Token":  true,
		"Authorization": true,
	})
	if err != nil {
		return "", err
	}
	return url.PathEscape(b.String()), nil
}
