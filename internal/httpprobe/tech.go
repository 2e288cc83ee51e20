package httpprobe

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/hakim/surfacerecon/internal/models"
)

type bodyMarker struct {
	name     string
	category string
	any      []string
	all      []string
}

var bodyMarkers = []bodyMarker{
	{name: "WordPress", category: "cms", any: []string{"wp-content", "wp-includes"}},
	{name: "Laravel", category: "framework", all: []string{"csrf-token", "laravel"}},
	{name: "Next.js", category: "framework", any: []string{"__next", "next-data"}},
	{name: "React", category: "library", any: []string{"react-root", "react-dom"}},
	{name: "Vue.js", category: "library", any: []string{"vue-app", "vue-ssr"}},
	{name: "Angular", category: "framework", any: []string{"angular-", "ng-version", "ng-app"}},
	{name: "jQuery", category: "library", any: []string{"jquery", "jQuery"}},
	{name: "Bootstrap", category: "framework", any: []string{"bootstrap", "Bootstrap"}},
}

// DetectTechnologies fingerprints an endpoint from its headers and body.
// Each technology name is reported at most once.
func DetectTechnologies(headers map[string]string, body string) []models.Technology {
	var techs []models.Technology
	seen := make(map[string]bool)
	add := func(name, category, source string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		techs = append(techs, models.Technology{Name: name, Category: category, Source: source})
	}

	add(headers["Server"], "server", "header")
	add(headers["X-Powered-By"], "framework", "header")
	add(headers["X-Generator"], "cms", "header")
	if headers["Cf-Ray"] != "" {
		add("Cloudflare", "cdn", "header")
	}
	if headers["X-Amz-Request-Id"] != "" || headers["X-Amz-Cf-Id"] != "" {
		add("AWS", "cloud", "header")
	}
	if headers["X-Azure-Ref"] != "" {
		add("Azure", "cloud", "header")
	}

	for _, m := range bodyMarkers {
		if matchesMarker(body, m) {
			add(m.name, m.category, "body")
		}
	}

	return techs
}

func matchesMarker(body string, m bodyMarker) bool {
	if len(m.all) > 0 {
		for _, s := range m.all {
			if !strings.Contains(body, s) {
				return false
			}
		}
		return true
	}
	for _, s := range m.any {
		if strings.Contains(body, s) {
			return true
		}
	}
	return false
}

// parsePage extracts the document title and absolute script sources.
func parsePage(body string, base *url.URL) (title string, scripts []string) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return "", nil
	}

	seen := make(map[string]bool)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if title == "" && n.FirstChild != nil {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "script":
				for _, a := range n.Attr {
					if !strings.EqualFold(a.Key, "src") || a.Val == "" {
						continue
					}
					if abs := resolveRef(base, a.Val); abs != "" && !seen[abs] {
						seen[abs] = true
						scripts = append(scripts, abs)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return title, scripts
}

func resolveRef(base *url.URL, ref string) string {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
