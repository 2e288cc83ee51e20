package pathscan

// DefaultPaths are well-known locations that commonly leak secrets,
// source, backups or internal tooling.
var DefaultPaths = []string{
	// environment and secrets
	"/.env", "/.env.local", "/.env.production", "/.env.development", "/.env.staging",
	"/.aws/credentials", "/.aws/config",
	"/.npmrc", "/.yarnrc", "/.pypirc", "/.gem/credentials",
	"/.ssh/id_rsa", "/.ssh/id_dsa", "/.ssh/authorized_keys", "/.ssh/config",
	"/secrets.yml", "/config.json", "/config.yml",

	// version control
	"/.git/config", "/.git/HEAD", "/.git/index", "/.git/refs/heads/master",
	"/.svn/entries", "/.hg/hgrc",

	// dependency manifests
	"/composer.json", "/composer.lock", "/package.json", "/package-lock.json",
	"/Gemfile", "/Gemfile.lock", "/requirements.txt", "/Pipfile", "/Pipfile.lock",

	// application config
	"/wp-config.php", "/wp-config.php.bak", "/wp-config.php.save",
	"/configuration.php", "/config.php", "/config.php.bak",
	"/settings.py", "/settings.py.bak", "/local_settings.py",
	"/database.yml", "/application.properties", "/appsettings.json",
	"/.htaccess", "/.htpasswd", "/web.config", "/web.config.bak",

	// info disclosure
	"/robots.txt", "/sitemap.xml", "/crossdomain.xml", "/clientaccesspolicy.xml",
	"/phpinfo.php", "/info.php", "/test.php", "/php.php",
	"/.DS_Store", "/Thumbs.db",
	"/.well-known/security.txt", "/.well-known/openid-configuration",

	// backups and dumps
	"/backup.sql", "/dump.sql", "/db.sql", "/database.sql", "/data.sql",
	"/backup.zip", "/backup.tar.gz", "/backup.tgz", "/backup.tar",

	// API documentation
	"/swagger.json", "/swagger.yaml", "/swagger-ui", "/openapi.json",
	"/api-docs", "/api/swagger", "/api/docs", "/api/v1/docs",
	"/graphql", "/graphiql", "/playground",

	// admin consoles
	"/phpmyadmin", "/pma", "/adminer", "/admin", "/administrator",
	"/console", "/h2-console", "/jenkins", "/webmin", "/cpanel",

	// runtime and debug endpoints
	"/server-status", "/server-info", "/status", "/metrics",
	"/actuator", "/actuator/health", "/actuator/info", "/actuator/env",
	"/actuator/metrics", "/actuator/mappings", "/actuator/heapdump",
	"/debug/pprof/", "/debug/vars",
}
