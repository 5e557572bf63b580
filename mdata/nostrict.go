//go:build !strict

package mdata

const strict = false
