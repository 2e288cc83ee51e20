package models

import (
	"net/http"
	"time"
)

// ResolvedHost is a candidate hostname that returned at least one address
type ResolvedHost struct {
	Hostname  string   `json:"hostname"`
	Addresses []string `json:"addresses"`
	Method    string   `json:"method"`
}

// Technology is a product or framework fingerprinted on a live endpoint
type Technology struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Source   string `json:"source"`
}

// LiveEndpoint is a host that answered an HTTP or HTTPS request
type LiveEndpoint struct {
	Hostname     string            `json:"hostname"`
	Scheme       string            `json:"scheme"`
	URL          string            `json:"url"`
	StatusCode   int               `json:"status_code"`
	Headers      map[string]string `json:"headers,omitempty"`
	Body         string            `json:"-"`
	BodySize     int               `json:"body_size"`
	ResponseTime time.Duration     `json:"response_time"`
	Title        string            `json:"title,omitempty"`
	Scripts      []string          `json:"scripts,omitempty"`
	Technologies []Technology      `json:"technologies,omitempty"`
}

// Header returns a response header value using case-insensitive lookup.
func (e *LiveEndpoint) Header(name string) string {
	if e.Headers == nil {
		return ""
	}
	return e.Headers[http.CanonicalHeaderKey(name)]
}

// HarvestedURL is a historical URL returned by an archive index
type HarvestedURL struct {
	URL      string   `json:"url"`
	Source   string   `json:"source"`
	Hostname string   `json:"hostname"`
	Category Category `json:"category"`
}

// HarvestResult is the merged and categorized output of URL harvesting
type HarvestResult struct {
	Total       int                         `json:"total"`
	Categorized map[Category][]HarvestedURL `json:"categorized"`
	Sample      []string                    `json:"sample,omitempty"`
}

// ByCategory returns the retained URLs of one category.
func (h *HarvestResult) ByCategory(c Category) []HarvestedURL {
	if h == nil || h.Categorized == nil {
		return nil
	}
	return h.Categorized[c]
}

// Location identifies where content was retrieved from
type Location struct {
	Hostname string `json:"hostname"`
	Path     string `json:"path,omitempty"`
	URL      string `json:"url"`
}

// Finding is a detected sensitive-data pattern match
type Finding struct {
	Pattern    string   `json:"pattern"`
	Matches    []string `json:"matches"`
	Confidence float64  `json:"confidence"`
	Severity   Severity `json:"severity"`
	Location   Location `json:"location"`
	Context    string   `json:"context,omitempty"`
}

// PathResult is a sensitive path that answered 200 on a live host
type PathResult struct {
	URL        string    `json:"url"`
	Hostname   string    `json:"hostname"`
	Path       string    `json:"path"`
	StatusCode int       `json:"status_code"`
	Findings   []Finding `json:"findings,omitempty"`
}

// OpenPort is a TCP port that accepted a connection
type OpenPort struct {
	Hostname string `json:"hostname"`
	Port     int    `json:"port"`
	Service  string `json:"service"`
}
