package harvest

import (
	"strings"

	"github.com/hakim/surfacerecon/internal/models"
)

type rule struct {
	category models.Category
	markers  []string
}

// rules are checked in order; the first match wins.
var rules = []rule{
	{models.CategoryScript, []string{".js"}},
	{models.CategoryStyle, []string{".css"}},
	{models.CategoryImage, []string{".jpg", ".jpeg", ".png", ".gif", ".svg", ".ico", ".webp"}},
	{models.CategoryAPI, []string{"/api/", "/v1/", "/v2/", "/graphql"}},
	{models.CategoryAdmin, []string{"/admin", "/administrator", "/wp-admin"}},
	{models.CategoryBackup, []string{".bak", ".backup", ".sql", ".old", ".swp"}},
	{models.CategoryConfig, []string{".env", ".git", "config.", ".yml", ".yaml", ".ini"}},
}

// Categorize assigns a URL to exactly one category using case-insensitive
// substring rules.
func Categorize(rawURL string) models.Category {
	u := strings.ToLower(rawURL)
	for _, r := range rules {
		for _, m := range r.markers {
			if strings.Contains(u, m) {
				return r.category
			}
		}
	}
	return models.CategoryOther
}
