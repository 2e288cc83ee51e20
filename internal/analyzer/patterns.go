package analyzer

import (
	"regexp"

	"github.com/hakim/surfacerecon/internal/models"
)

// Confidence values per pattern class.
const (
	ConfidenceHigh    = 0.95
	ConfidenceMedium  = 0.85
	ConfidenceDefault = 0.75
)

// Pattern is a named detector with a fixed severity and confidence.
type Pattern struct {
	ID         string
	Regexp     *regexp.Regexp
	Severity   models.Severity
	Confidence float64
}

func critical(id, expr string) Pattern {
	return Pattern{id, regexp.MustCompile(expr), models.SeverityCritical, ConfidenceHigh}
}

func high(id, expr string) Pattern {
	return Pattern{id, regexp.MustCompile(expr), models.SeverityHigh, ConfidenceMedium}
}

func medium(id, expr string) Pattern {
	return Pattern{id, regexp.MustCompile(expr), models.SeverityMedium, ConfidenceDefault}
}

func low(id, expr string) Pattern {
	return Pattern{id, regexp.MustCompile(expr), models.SeverityLow, ConfidenceDefault}
}

// Patterns is the ordered detector table. Order is the order findings are
// emitted in for a single content item.
var Patterns = []Pattern{
	// keys and tokens
	high("apiKey", `(?i)api[_-]?key[_-]?[:=]\s*['"]?[a-zA-Z0-9]{16,64}['"]?`),
	critical("awsKey", `AKIA[0-9A-Z]{16}`),
	critical("googleApi", `AIza[0-9A-Za-z\-_]{35}`),
	high("facebookToken", `EAACEdEose0cBA[0-9A-Za-z]+`),
	high("githubToken", `ghp_[a-zA-Z0-9]{36}`),
	high("slackToken", `xox[baprs]-[0-9a-zA-Z\-]{10,48}`),
	critical("stripeKey", `sk_live_[0-9a-zA-Z]{24}`),
	critical("twilioKey", `SK[0-9a-f]{32}`),

	// authentication
	high("jwtToken", `eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`),
	high("password", `(?i)password["']?\s*[=:]\s*["']?[^"'\s,;&]+`),
	high("secret", `(?i)secret["']?\s*[=:]\s*["']?[^"'\s,;&]+`),
	high("token", `(?i)token["']?\s*[=:]\s*["']?[^"'\s,;&]+`),

	// databases
	high("dbConnection", `(?:mongodb|postgres(?:ql)?|mysql|redis)://[^\s"'<>]+`),
	high("mongoConnection", `mongodb(?:\+srv)?://[^\s"'<>]+`),
	high("mysqlConnection", `mysql://[^\s"'<>]+`),

	// private keys
	critical("privateKey", `-----BEGIN (?:RSA |DSA |EC |OPENSSH |ENCRYPTED )?PRIVATE KEY-----`),
	critical("sshKey", `ssh-(?:rsa|dss|ed25519) [A-Za-z0-9+/=]{20,}`),

	// cloud storage
	medium("s3Bucket", `[a-zA-Z0-9.\-]+\.s3(?:[.\-][a-z0-9\-]+)?\.amazonaws\.com`),
	medium("azureStorage", `[a-zA-Z0-9]+\.blob\.core\.windows\.net`),
	medium("gcpBucket", `[a-zA-Z0-9.\-]+\.storage\.googleapis\.com`),
	medium("firebaseURL", `https?://[a-zA-Z0-9\-]+\.firebaseio\.com`),

	// personal data
	medium("email", `[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
	medium("phone", `(?:\+\d{1,3}[\-. ]?)?\(?\d{3}\)?[\-. ]\d{3}[\-. ]\d{4}\b`),
	medium("ssn", `\b\d{3}-\d{2}-\d{4}\b`),
	critical("creditCard", `\b(?:4\d{3}|5[1-5]\d{2}|3[47]\d{2}|6011)[ \-]?\d{4}[ \-]?\d{4}[ \-]?\d{1,4}\b`),

	// configuration leakage
	medium("envAssignment", `(?m)^[A-Z][A-Z0-9_]{2,}=['"]?[^'"\s]+`),
	low("internalIP", `\b(?:10\.\d{1,3}\.\d{1,3}\.\d{1,3}|172\.(?:1[6-9]|2\d|3[01])\.\d{1,3}\.\d{1,3}|192\.168\.\d{1,3}\.\d{1,3})\b`),
	low("internalPath", `(?:/var/|/etc/|/usr/|/home/|/root/|/opt/)[a-zA-Z0-9._\-/]*`),
}

// PatternByID returns the pattern with the given identifier.
func PatternByID(id string) (Pattern, bool) {
	for _, p := range Patterns {
		if p.ID == id {
			return p, true
		}
	}
	return Pattern{}, false
}
