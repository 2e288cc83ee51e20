package httpprobe

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"
)

// routeTransport answers requests from a table keyed by "scheme://host".
type routeTransport struct {
	mu     sync.Mutex
	routes map[string]*http.Response
	calls  []string
}

func (rt *routeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	key := req.URL.Scheme + "://" + req.URL.Host
	rt.mu.Lock()
	rt.calls = append(rt.calls, key)
	resp, ok := rt.routes[key]
	rt.mu.Unlock()

	if !ok {
		return nil, errors.New("connection refused")
	}
	clone := *resp
	clone.Request = req
	return &clone, nil
}

func (rt *routeTransport) called(key string) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	for _, c := range rt.calls {
		if c == key {
			return true
		}
	}
	return false
}

func response(status int, header http.Header, body string) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestProbeHTTPSFirst(t *testing.T) {
	rt := &routeTransport{routes: map[string]*http.Response{
		"https://secure.example.com": response(500, nil, "oops"),
		"http://secure.example.com":  response(200, nil, "plain"),
	}}
	p := NewProber(Options{Timeout: time.Second, Transport: rt})

	ep, ok := p.Probe(context.Background(), "secure.example.com")
	if !ok {
		t.Fatal("expected host to be live")
	}
	if ep.Scheme != "https" || ep.StatusCode != 500 {
		t.Errorf("expected https 500, got %s %d", ep.Scheme, ep.StatusCode)
	}
	if rt.called("http://secure.example.com") {
		t.Errorf("HTTP must not be tried after an HTTPS response")
	}
}

func TestProbeFallsBackToHTTP(t *testing.T) {
	rt := &routeTransport{routes: map[string]*http.Response{
		"http://plain.example.com": response(404, nil, ""),
	}}
	p := NewProber(Options{Timeout: time.Second, Transport: rt})

	ep, ok := p.Probe(context.Background(), "plain.example.com")
	if !ok {
		t.Fatal("expected host to be live over HTTP")
	}
	if ep.Scheme != "http" || ep.StatusCode != 404 || ep.URL != "http://plain.example.com/" {
		t.Errorf("unexpected endpoint %+v", ep)
	}

	if _, ok := p.Probe(context.Background(), "dead.example.com"); ok {
		t.Errorf("expected dead host to be absent")
	}
}

func TestProbeCapturesPage(t *testing.T) {
	body := `<html><head><title> Admin Portal </title>
<script src="/static/app.js"></script>
<script src="https://cdn.example.net/jquery.min.js"></script>
<link href="/wp-content/themes/x.css"></head><body>` + strings.Repeat("x", 4096) + `</body></html>`

	header := http.Header{}
	header.Set("server", "Apache/2.4.1")
	header.Set("cf-ray", "abc")
	rt := &routeTransport{routes: map[string]*http.Response{
		"https://www.example.com": response(200, header, body),
	}}
	p := NewProber(Options{Timeout: time.Second, BodyCap: 1024, Transport: rt})

	ep, ok := p.Probe(context.Background(), "www.example.com")
	if !ok {
		t.Fatal("expected host to be live")
	}
	if ep.BodySize != 1024 || len(ep.Body) != 1024 {
		t.Errorf("expected body capped at 1024, got %d", ep.BodySize)
	}
	if ep.Title != "Admin Portal" {
		t.Errorf("expected title, got %q", ep.Title)
	}
	if got := ep.Header("SERVER"); got != "Apache/2.4.1" {
		t.Errorf("expected case-insensitive header lookup, got %q", got)
	}

	wantScripts := []string{"https://www.example.com/static/app.js", "https://cdn.example.net/jquery.min.js"}
	if len(ep.Scripts) != 2 || ep.Scripts[0] != wantScripts[0] || ep.Scripts[1] != wantScripts[1] {
		t.Errorf("expected scripts %v, got %v", wantScripts, ep.Scripts)
	}

	names := map[string]bool{}
	for _, tech := range ep.Technologies {
		names[tech.Name] = true
	}
	for _, want := range []string{"Apache/2.4.1", "Cloudflare", "WordPress", "jQuery"} {
		if !names[want] {
			t.Errorf("expected technology %q in %v", want, ep.Technologies)
		}
	}
}

func TestProbeAllKeepsOrder(t *testing.T) {
	rt := &routeTransport{routes: map[string]*http.Response{
		"https://a.example.com": response(200, nil, ""),
		"http://c.example.com":  response(301, nil, ""),
	}}
	p := NewProber(Options{Timeout: time.Second, Transport: rt, Concurrency: 2})

	live := p.ProbeAll(context.Background(), []string{"a.example.com", "b.example.com", "c.example.com"})
	if len(live) != 2 || live[0].Hostname != "a.example.com" || live[1].Hostname != "c.example.com" {
		t.Errorf("unexpected live endpoints %+v", live)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := p.ProbeAll(ctx, []string{"a.example.com"}); len(got) != 0 {
		t.Errorf("expected nothing probed after cancellation, got %v", got)
	}
}

func TestDetectTechnologiesLaravelNeedsBothMarkers(t *testing.T) {
	if techs := DetectTechnologies(map[string]string{}, `<meta name="csrf-token">`); len(techs) != 0 {
		t.Errorf("expected no technologies, got %v", techs)
	}
	techs := DetectTechnologies(map[string]string{}, `<meta name="csrf-token"> laravel_session`)
	if len(techs) != 1 || techs[0].Name != "Laravel" {
		t.Errorf("expected Laravel, got %v", techs)
	}
}
