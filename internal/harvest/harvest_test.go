package harvest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/hakim/surfacerecon/internal/models"
)

func TestCategorize(t *testing.T) {
	testCases := []struct {
		url  string
		want models.Category
	}{
		{"https://a.example.com/static/app.js?v=1", models.CategoryScript},
		{"https://a.example.com/api/app.js", models.CategoryScript},
		{"https://a.example.com/site.CSS", models.CategoryStyle},
		{"https://a.example.com/logo.png", models.CategoryImage},
		{"https://a.example.com/api/users", models.CategoryAPI},
		{"https://a.example.com/v2/orders", models.CategoryAPI},
		{"https://a.example.com/wp-admin/index.php", models.CategoryAdmin},
		{"https://a.example.com/dump.sql", models.CategoryBackup},
		{"https://a.example.com/.env", models.CategoryConfig},
		{"https://a.example.com/config.php", models.CategoryConfig},
		{"https://a.example.com/about", models.CategoryOther},
	}
	for _, tc := range testCases {
		if got := Categorize(tc.url); got != tc.want {
			t.Errorf("Categorize(%q) = %s, want %s", tc.url, got, tc.want)
		}
	}
}

type fakeIndex struct {
	name string
	urls map[string][]string
	err  error
}

func (f *fakeIndex) Name() string { return f.name }

func (f *fakeIndex) Fetch(ctx context.Context, host string) ([]string, error) {
	return f.urls[host], f.err
}

func TestHarvestMergesAndDedups(t *testing.T) {
	wayback := &fakeIndex{name: "wayback", urls: map[string][]string{
		"a.example.com": {"https://a.example.com/app.js", "https://a.example.com/api/v", "https://evil.com/x"},
		"b.example.com": {"https://b.example.com/.env"},
	}}
	otx := &fakeIndex{name: "otx", urls: map[string][]string{
		"a.example.com": {"https://a.example.com/app.js", "https://a.example.com/backup.bak"},
	}}
	broken := &fakeIndex{name: "urlscan", err: errors.New("429 too many requests")}

	h := NewHarvester(time.Second, 100, 4, wayback, otx, broken)
	res := h.Harvest(context.Background(), "example.com", []string{"a.example.com", "b.example.com"})

	if res.Total != 4 {
		t.Errorf("expected 4 unique URLs, got %d", res.Total)
	}
	wantSample := []string{
		"https://a.example.com/app.js",
		"https://a.example.com/api/v",
		"https://a.example.com/backup.bak",
		"https://b.example.com/.env",
	}
	if !reflect.DeepEqual(res.Sample, wantSample) {
		t.Errorf("expected sample %v, got %v", wantSample, res.Sample)
	}

	scripts := res.ByCategory(models.CategoryScript)
	if len(scripts) != 1 || scripts[0].Source != "wayback" || scripts[0].Hostname != "a.example.com" {
		t.Errorf("unexpected scripts %+v", scripts)
	}
	if len(res.ByCategory(models.CategoryConfig)) != 1 || len(res.ByCategory(models.CategoryBackup)) != 1 {
		t.Errorf("unexpected categories %+v", res.Categorized)
	}
}

func TestHarvestCap(t *testing.T) {
	urls := make([]string, 20)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://a.example.com/page/%d", i)
	}
	idx := &fakeIndex{name: "wayback", urls: map[string][]string{"a.example.com": urls}}

	res := NewHarvester(time.Second, 5, 1, idx).Harvest(context.Background(), "example.com", []string{"a.example.com"})
	if res.Total != 20 {
		t.Errorf("expected total 20, got %d", res.Total)
	}
	if got := len(res.ByCategory(models.CategoryOther)); got != 5 {
		t.Errorf("expected 5 retained URLs, got %d", got)
	}
}

func TestHTTPIndexes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/cdx/search/cdx", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[["original"],["https://a.example.com/x.js"],["https://a.example.com/y"]]`))
	})
	mux.HandleFunc("/CC-MAIN-2024-10-index", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{\"url\":\"https://a.example.com/cc1\"}\n{\"url\":\"https://a.example.com/cc2\"}\n"))
	})
	mux.HandleFunc("/api/v1/search/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"page":{"url":"https://a.example.com/scan"}}]}`))
	})
	mux.HandleFunc("/api/v1/indicators/domain/a.example.com/url_list", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	opts := IndexOptions{Client: srv.Client(), BaseURL: srv.URL}
	testCases := []struct {
		idx     Index
		want    []string
		wantErr bool
	}{
		{NewWaybackIndex(opts), []string{"https://a.example.com/x.js", "https://a.example.com/y"}, false},
		{NewCommonCrawlIndex(opts, "CC-MAIN-2024-10"), []string{"https://a.example.com/cc1", "https://a.example.com/cc2"}, false},
		{NewURLScanIndex(opts, ""), []string{"https://a.example.com/scan"}, false},
		{NewAlienVaultIndex(opts), nil, true},
	}
	for _, tc := range testCases {
		got, err := tc.idx.Fetch(context.Background(), "a.example.com")
		if tc.wantErr {
			if !errors.Is(err, ErrBadStatus) {
				t.Errorf("%s: expected ErrBadStatus, got %v", tc.idx.Name(), err)
			}
			continue
		}
		if err != nil || !reflect.DeepEqual(got, tc.want) {
			t.Errorf("%s: got %v, %v; want %v", tc.idx.Name(), got, err, tc.want)
		}
	}
}
