package logging

import (
	"log/slog"
	"regexp"

	"github.com/m-mizutani/masq"
)

var (
	// Authorization header values as the admin server may see them.
	authSchemePattern = regexp.MustCompile(`(?i)^(bearer|basic)\s+\S+`)

	// URLs carrying credentials, such as an OTLP endpoint with user:password@.
	credentialURLPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://[^/\s:@]+:[^/\s@]+@`)
)

// DefaultRedactOptions returns the masq options applied to every log line.
// Quote text, attributions and peer addresses are never redacted.
func DefaultRedactOptions() []masq.Option {
	return []masq.Option{
		masq.WithFieldName("authorization"),
		masq.WithFieldName("Authorization"),
		masq.WithFieldName("cookie"),
		masq.WithFieldName("password"),
		masq.WithFieldName("token"),
		masq.WithFieldName("api_key"),
		masq.WithFieldName("otlp_headers"),
		masq.WithFieldPrefix("secret"),
		masq.WithFieldPrefix("private"),
		masq.WithRegex(authSchemePattern),
		masq.WithRegex(credentialURLPattern),
	}
}

// NewReplaceAttr returns a slog ReplaceAttr hook applying DefaultRedactOptions
// plus any extra options.
func NewReplaceAttr(opts ...masq.Option) func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(append(DefaultRedactOptions(), opts...)...)
}
