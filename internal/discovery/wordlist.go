package discovery

// prefixes are common subdomain labels. Duplicates are tolerated here and
// removed once by Prefixes.
var prefixes = []string{
	"www", "mail", "remote", "blog", "webmail", "server", "ns1", "ns2",
	"smtp", "secure", "vpn", "admin", "portal", "support", "pop", "pop3",
	"ftp", "ssh", "exchange", "mail2", "gw", "proxy", "test", "dev",
	"staging", "stage", "beta", "shop", "store", "api", "app", "demo",
	"media", "cdn", "static", "assets", "images", "img", "video",
	"download", "downloads", "files", "file", "upload", "uploads",
	"forum", "community", "chat", "help", "docs", "documentation",
	"wiki", "kb", "knowledge", "faq", "status", "health", "monitor",
	"monitoring", "stats", "statistics", "analytics", "metrics",
	"logs", "log", "debug", "trace", "internal", "external",
	"public", "private", "auth", "login", "signin", "signup",
	"register", "account", "accounts", "user", "users", "profile",
	"profiles", "member", "members", "customer", "customers",
	"client", "clients", "partner", "partners", "vendor", "vendors",
	"backup", "backups", "archive", "archives", "old", "new",
	"temp", "tmp", "cache", "cached", "storage",
	"preview", "preprod", "production", "prod", "development",
	"sandbox", "playground", "lab", "labs", "testlab",
	"jenkins", "git", "github", "gitlab", "bitbucket", "jira",
	"confluence", "redmine", "trac", "bugzilla",
	"phpmyadmin", "adminer", "mysql", "phpadmin", "pma",
	"webmin", "cpanel", "whm", "plesk", "vesta", "ajenti",
	"mailcow", "rainloop", "roundcube", "squirrelmail",
	"openwebmail", "horde", "svn", "cvs", "gitweb",
	"kibana", "elastic", "logstash", "grafana", "prometheus",
	"zabbix", "nagios", "icinga", "munin", "cacti",
	"redis", "memcache", "memcached", "mongodb", "mongod",
	"rabbitmq", "mq", "activemq", "kafka", "zookeeper",
	"docker", "k8s", "kubernetes", "swarm", "rancher",
	"travis", "circleci", "drone", "gitlab-ci",
	"sonar", "sonarqube", "nexus", "artifactory", "harbor",
	"qa", "uat", "dev2", "test2", "staging2", "int", "integration",
	"m", "mobile", "wap", "api2", "api-v1", "v1", "v2", "graphql",
	"rest", "ws", "gateway", "edge", "origin", "lb", "sso", "id",
	"identity", "oauth", "crm", "erp", "hr", "intranet", "extranet",
	"owa", "autodiscover", "imap", "mx", "mx1", "mx2", "relay",
	"ns3", "dns", "billing", "pay", "payment", "payments", "checkout",
	"search", "service", "services", "ci", "build", "deploy",
	"registry", "vault", "consul", "sentry", "s3", "bucket",
	"cms", "dashboard", "console", "panel", "manage", "manager",
	"office", "corp", "intern", "staff", "partners-portal", "events",
	"news", "careers", "jobs", "marketing", "go", "link", "links",
}

// hyphenPrefixes also produce the "prefix-domain" form, which some
// organizations register for environments alongside "prefix.domain".
var hyphenPrefixes = []string{
	"dev", "test", "staging", "stage", "uat", "qa", "prod", "preprod",
	"beta", "demo", "sandbox", "api", "admin", "app", "internal",
}

// Prefixes returns the deduplicated prefix list in declaration order.
func Prefixes() []string {
	seen := make(map[string]struct{}, len(prefixes))
	out := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// ExpandWordlist builds candidate hostnames for domain from the prefix list.
// The result is deterministic, contains no duplicates and never contains the
// bare domain.
func ExpandWordlist(domain string) []string {
	domain = normalizeHost(domain)
	if domain == "" {
		return nil
	}

	base := Prefixes()
	out := make([]string, 0, len(base)+len(hyphenPrefixes))
	seen := make(map[string]struct{}, cap(out))
	add := func(h string) {
		if _, ok := seen[h]; ok {
			return
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}

	for _, p := range base {
		add(p + "." + domain)
	}
	for _, p := range hyphenPrefixes {
		add(p + "-" + domain)
	}

	return out
}

// WordlistSize is the number of candidates ExpandWordlist yields per domain.
func WordlistSize() int {
	return len(Prefixes()) + len(hyphenPrefixes)
}
