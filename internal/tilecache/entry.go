// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package tilecache

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Entry is a stored response keyed by its exact request URL.
type Entry struct {
	Key      string      `json:"key"`
	Status   int         `json:"status"`
	Header   http.Header `json:"header"`
	Body     []byte      `json:"body"`
	StoredAt time.Time   `json:"stored_at"`

	// Seq orders entries by insertion. Stores assign it.
	Seq uint64 `json:"seq"`
}

// newEntry captures a response whose body has already been read.
func newEntry(key string, resp *http.Response, body []byte, now time.Time) *Entry {
	return &Entry{
		Key:      key,
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     bytes.Clone(body),
		StoredAt: now,
	}
}

// clone returns a deep copy.
func (e *Entry) clone() *Entry {
	c := *e
	c.Header = e.Header.Clone()
	c.Body = bytes.Clone(e.Body)
	return &c
}

// Response rebuilds an *http.Response for req from the entry.
func (e *Entry) Response(req *http.Request) *http.Response {
	header := e.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	header.Set("Content-Length", strconv.Itoa(len(e.Body)))
	return &http.Response{
		Status:        strconv.Itoa(e.Status) + " " + http.StatusText(e.Status),
		StatusCode:    e.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}

// offlineResponse is the synthesized answer when neither the network nor the
// cache can serve a request.
func offlineResponse(req *http.Request) *http.Response {
	return &http.Response{
		Status:        "408 " + http.StatusText(http.StatusRequestTimeout),
		StatusCode:    http.StatusRequestTimeout,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        http.Header{HeaderCache: []string{CacheOffline}},
		Body:          http.NoBody,
		ContentLength: 0,
		Request:       req,
	}
}
