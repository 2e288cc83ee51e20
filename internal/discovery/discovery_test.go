package discovery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/miekg/dns"
)

type fakeSource struct {
	name  string
	hosts []string
	err   error
	delay time.Duration
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(ctx context.Context, domain string) ([]string, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.hosts, f.err
}

func TestExpandWordlist(t *testing.T) {
	got := ExpandWordlist("Example.com.")
	if len(got) != WordlistSize() {
		t.Fatalf("expected %d entries, got %d", WordlistSize(), len(got))
	}

	seen := map[string]bool{}
	for _, h := range got {
		if h == "example.com" {
			t.Errorf("expansion must not contain the bare domain")
		}
		if seen[h] {
			t.Errorf("duplicate entry %q", h)
		}
		seen[h] = true
	}

	for _, want := range []string{"www.example.com", "dev.example.com", "dev-example.com", "staging-example.com"} {
		if !seen[want] {
			t.Errorf("expected %q in expansion", want)
		}
	}
	if seen["www-example.com"] {
		t.Errorf("hyphen form is only produced for environment prefixes")
	}

	if !reflect.DeepEqual(got, ExpandWordlist("example.com")) {
		t.Errorf("expansion is not deterministic")
	}
}

func TestValidateDomain(t *testing.T) {
	testCases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"example.com", "example.com", false},
		{"  Example.COM. ", "example.com", false},
		{"shop.example.co.uk", "shop.example.co.uk", false},
		{"co.uk", "", true},
		{"localhost", "", true},
		{"", "", true},
		{"http://example.com", "", true},
		{"-bad.example.com", "", true},
	}
	for _, tc := range testCases {
		got, err := ValidateDomain(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidDomain) {
				t.Errorf("ValidateDomain(%q): expected ErrInvalidDomain, got %v", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ValidateDomain(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestDiscoverWordlistOnly(t *testing.T) {
	agg := NewAggregator(time.Second, true)
	got, warnings := agg.Discover(context.Background(), "example.com")

	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if len(got) != len(ExpandWordlist("example.com"))+1 {
		t.Errorf("expected expansion + bare domain, got %d", len(got))
	}
	if !slices.Contains(got, "example.com") {
		t.Errorf("bare domain missing")
	}
	if !slices.IsSorted(got) {
		t.Errorf("candidates are not sorted")
	}
}

func TestDiscoverMergesSources(t *testing.T) {
	agg := NewAggregator(time.Second, false,
		&fakeSource{name: "a", hosts: []string{"WWW.example.com.", "*.api.example.com", "mail.example.com"}},
		&fakeSource{name: "b", hosts: []string{"www.example.com", "evil.com", "notexample.com", "mail.example.com"}},
	)

	got, warnings := agg.Discover(context.Background(), "example.com")
	want := []string{"api.example.com", "example.com", "mail.example.com", "www.example.com"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
}

func TestDiscoverAllSourcesDown(t *testing.T) {
	agg := NewAggregator(50*time.Millisecond, false,
		&fakeSource{name: "down", err: errors.New("connection refused")},
		&fakeSource{name: "slow", delay: time.Second, hosts: []string{"late.example.com"}},
	)

	got, warnings := agg.Discover(context.Background(), "example.com")
	if !reflect.DeepEqual(got, []string{"example.com"}) {
		t.Errorf("expected only the bare domain, got %v", got)
	}
	if len(warnings) != 2 {
		t.Errorf("expected one warning per failed source, got %v", warnings)
	}
}

func TestHTTPSources(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/":
			w.Write([]byte(`[{"name_value":"a.example.com\nb.example.com"},{"name_value":"*.c.example.com"}]`))
		case r.URL.Path == "/hostsearch/":
			w.Write([]byte("d.example.com,1.2.3.4\ne.example.com,5.6.7.8\n"))
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/api/v1/indicators/domain/example.com/passive_dns", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"passive_dns":[{"hostname":"f.example.com"}]}`))
	})
	mux.HandleFunc("/v1/domain/example.com/subdomains", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("APIKEY") != "k1" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(`{"subdomains":["g","h"]}`))
	})
	mux.HandleFunc("/api/v3/domains/example.com/subdomains", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-apikey") != "k2" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(`{"data":[{"id":"i.example.com"}]}`))
	})
	mux.HandleFunc("/v1/issuances", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	opts := SourceOptions{Client: srv.Client(), BaseURL: srv.URL}
	testCases := []struct {
		src     Source
		want    []string
		wantErr bool
	}{
		{NewCrtShSource(opts), []string{"a.example.com", "b.example.com", "*.c.example.com"}, false},
		{NewHackerTargetSource(opts), []string{"d.example.com", "e.example.com"}, false},
		{NewAlienVaultSource(opts), []string{"f.example.com"}, false},
		{NewSecurityTrailsSource(opts, "k1"), []string{"g.example.com", "h.example.com"}, false},
		{NewVirusTotalSource(opts, "k2"), []string{"i.example.com"}, false},
		{NewSecurityTrailsSource(opts, "wrong"), nil, true},
		{NewCertSpotterSource(opts), nil, true},
	}
	for _, tc := range testCases {
		got, err := tc.src.Fetch(context.Background(), "example.com")
		if tc.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", tc.src.Name())
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tc.src.Name(), err)
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.src.Name(), tc.want, got)
		}
	}
}

type fakeLookup struct {
	v4    map[string][]string
	v6    map[string][]string
	calls atomic.Int64
}

func (f *fakeLookup) Lookup(ctx context.Context, host string, qtype uint16) ([]string, error) {
	f.calls.Add(1)
	var addrs []string
	if qtype == dns.TypeA {
		addrs = f.v4[host]
	} else {
		addrs = f.v6[host]
	}
	if len(addrs) == 0 {
		return nil, errors.New("NXDOMAIN")
	}
	return addrs, nil
}

func TestResolve(t *testing.T) {
	lookup := &fakeLookup{
		v4: map[string][]string{"a.example.com": {"10.0.0.1"}, "c.example.com": {"10.0.0.3"}},
		v6: map[string][]string{"b.example.com": {"::1"}, "c.example.com": {"::3"}},
	}
	r := NewResolver(lookup, 2, time.Second)

	var batches [][2]int
	got := r.Resolve(context.Background(),
		[]string{"a.example.com", "b.example.com", "c.example.com", "d.example.com", "e.example.com"},
		func(done, total int) { batches = append(batches, [2]int{done, total}) })

	if len(got) != 3 {
		t.Fatalf("expected 3 resolved hosts, got %v", got)
	}
	wantMethods := []string{"A", "AAAA", "A+AAAA"}
	for i, h := range got {
		if h.Method != wantMethods[i] {
			t.Errorf("%s: expected method %s, got %s", h.Hostname, wantMethods[i], h.Method)
		}
	}
	if !reflect.DeepEqual(got[2].Addresses, []string{"10.0.0.3", "::3"}) {
		t.Errorf("expected merged addresses, got %v", got[2].Addresses)
	}

	wantBatches := [][2]int{{2, 5}, {4, 5}, {5, 5}}
	if !reflect.DeepEqual(batches, wantBatches) {
		t.Errorf("expected progress %v, got %v", wantBatches, batches)
	}
}

func TestResolveStopsBetweenBatches(t *testing.T) {
	lookup := &fakeLookup{v4: map[string][]string{"a.example.com": {"10.0.0.1"}}}
	r := NewResolver(lookup, 1, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	got := r.Resolve(ctx, []string{"a.example.com", "b.example.com", "c.example.com"},
		func(done, total int) {
			if done == 1 {
				cancel()
			}
		})

	if len(got) != 1 || got[0].Hostname != "a.example.com" {
		t.Errorf("expected only the first batch to resolve, got %v", got)
	}
	// A and AAAA for the single dispatched candidate
	if n := lookup.calls.Load(); n != 2 {
		t.Errorf("expected 2 lookups, got %d", n)
	}
}
