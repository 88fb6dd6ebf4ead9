// Package datautil holds the formatting and file helpers detail views hand
// to their templates: decoded size of base64 blobs and data URIs for opening
// them.
package datautil

import (
	"strings"

	"github.com/dustin/go-humanize"
)

// ByteSizeFunc formats the decoded size of a base64 payload.
type ByteSizeFunc func(base64 string) string

// OpenFileFunc returns a URI that opens a base64 payload of the given type.
type OpenFileFunc func(contentType, base64 string) string

// ByteSize reports the decoded size of a base64 string as "1 234 bytes".
func ByteSize(b64 string) string {
	return formatAsBytes(decodedSize(b64))
}

func decodedSize(b64 string) int64 {
	n := int64(len(b64))/4*3 - int64(paddingSize(b64))
	if n < 0 {
		return 0
	}
	return n
}

func paddingSize(b64 string) int {
	switch {
	case strings.HasSuffix(b64, "=="):
		return 2
	case strings.HasSuffix(b64, "="):
		return 1
	default:
		return 0
	}
}

func formatAsBytes(n int64) string {
	return strings.ReplaceAll(humanize.Comma(n), ",", " ") + " bytes"
}

// OpenFile returns the data URI for a base64 payload. An empty content type
// falls back to application/octet-stream.
func OpenFile(contentType, b64 string) string {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return "data:" + contentType + ";base64," + b64
}

// Helpers bundles the functions a detail view exposes to its template.
type Helpers struct {
	ByteSize ByteSizeFunc
	OpenFile OpenFileFunc
}

// Default returns the package implementations.
func Default() Helpers {
	return Helpers{ByteSize: ByteSize, OpenFile: OpenFile}
}
