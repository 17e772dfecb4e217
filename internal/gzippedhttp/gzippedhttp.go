// Package gzippedhttp transparently decodes gzip request bodies and gzip-encodes
// JSON responses for clients that accept it.
package gzippedhttp

import (
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(nil, gzip.BestSpeed)
		return w
	},
}

type gzipBody struct {
	source io.ReadCloser
	*gzip.Reader
}

func (b *gzipBody) Close() error {
	if err := b.Reader.Close(); err != nil {
		return err
	}
	return b.source.Close()
}

// compressingWriter decides whether to compress when the status line is
// written: only successful JSON responses are encoded.
type compressingWriter struct {
	http.ResponseWriter
	zw          *gzip.Writer
	compress    bool
	wroteHeader bool
}

func (c *compressingWriter) WriteHeader(statusCode int) {
	if c.wroteHeader {
		return
	}
	c.wroteHeader = true

	contentType := c.Header().Get("Content-Type")
	if statusCode < http.StatusMultipleChoices && strings.HasPrefix(contentType, "application/json") {
		c.compress = true
		c.zw = gzipWriterPool.Get().(*gzip.Writer)
		c.zw.Reset(c.ResponseWriter)
		c.Header().Set("Content-Encoding", "gzip")
		c.Header().Add("Vary", "Accept-Encoding")
		c.Header().Del("Content-Length")
	}
	c.ResponseWriter.WriteHeader(statusCode)
}

func (c *compressingWriter) Write(p []byte) (int, error) {
	if !c.wroteHeader {
		c.WriteHeader(http.StatusOK)
	}
	if c.compress {
		return c.zw.Write(p)
	}
	return c.ResponseWriter.Write(p)
}

func (c *compressingWriter) finish() error {
	if !c.compress {
		return nil
	}
	defer gzipWriterPool.Put(c.zw)
	return c.zw.Close()
}

// GzipResponse compresses JSON responses when the request's Accept-Encoding allows gzip.
func GzipResponse(h http.Handler) http.Handler {
	return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		if !strings.Contains(request.Header.Get("Accept-Encoding"), "gzip") {
			h.ServeHTTP(response, request)
			return
		}

		writer := &compressingWriter{ResponseWriter: response}
		defer func() {
			_ = writer.finish()
		}()

		h.ServeHTTP(writer, request)
	})
}

// brokenBody stands in for a request body that could not be decoded.
type brokenBody struct {
	source io.ReadCloser
	err    error
}

func (b *brokenBody) Read([]byte) (int, error) {
	return 0, b.err
}

func (b *brokenBody) Close() error {
	return b.source.Close()
}

// UngzipRequest replaces a gzip-encoded request body with a decoding reader.
// A body that is not valid gzip still reaches the handler, whose reads then
// fail with the decoding error, so it answers the way it does for any
// malformed body.
func UngzipRequest(h http.Handler) http.Handler {
	return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		if !strings.Contains(request.Header.Get("Content-Encoding"), "gzip") {
			h.ServeHTTP(response, request)
			return
		}

		zr, err := gzip.NewReader(request.Body)
		if err != nil {
			request.Body = &brokenBody{source: request.Body, err: fmt.Errorf("gzip request body: %w", err)}
		} else {
			request.Body = &gzipBody{source: request.Body, Reader: zr}
		}
		request.Header.Del("Content-Encoding")
		request.ContentLength = -1

		h.ServeHTTP(response, request)
	})
}
