// Package errors contains errors that map onto http status codes
package errors

import "net/http"

type BadRequest string

func NewBadRequest(err string) BadRequest {
	return BadRequest(err)
}

func (b BadRequest) HTTPStatusCode() int {
	return http.StatusBadRequest
}

func (b BadRequest) Error() string {
	return string(b)
}

type Internal string

func NewInternal(err string) Internal {
	return Internal(err)
}

func (i Internal) HTTPStatusCode() int {
	return http.StatusInternalServerError
}

func (i Internal) Error() string {
	return string(i)
}

type Unauthorized string

func NewUnauthorized(err string) Unauthorized {
	return Unauthorized(err)
}

func (u Unauthorized) HTTPStatusCode() int {
	return http.StatusUnauthorized
}

func (u Unauthorized) Error() string {
	return string(u)
}

// Unavailable means the request was valid but can't be served right now
type Unavailable string

func NewUnavailable(err string) Unavailable {
	return Unavailable(err)
}

func (u Unavailable) HTTPStatusCode() int {
	return http.StatusServiceUnavailable
}

func (u Unavailable) Error() string {
	return string(u)
}
