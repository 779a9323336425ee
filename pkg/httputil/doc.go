// Package httputil provides HTTP handler utilities for consistent error
// handling, JSON encoding/decoding, and request parsing.
//
// WriteAppError is the single translation point from the errs taxonomy to
// HTTP status codes; handlers never pick status codes for service errors
// themselves.
package httputil
