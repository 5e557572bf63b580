//go:build strict

package mdata

// in strict builds, a finite value that misses every bucket means the
// boundary table is broken, and we'd rather crash than drop samples.
const strict = true
