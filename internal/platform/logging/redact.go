package logging

import (
	"log/slog"
	"regexp"

	"github.com/m-mizutani/masq"
)

// sensitiveFields are attribute keys whose values are always masked.
var sensitiveFields = []string{
	"password", "secret", "token",
	"apiKey", "apikey", "api_key",
	"accessToken", "access_token", "refreshToken", "refresh_token",
	"credential", "credentials",
	"authorization", "auth", "bearer", "cookie", "session",
	"privateKey", "private_key", "secretKey", "secret_key",

	// Connection strings carry the database password.
	"dsn", "database_url", "DATABASE_URL",
}

var sensitivePrefixes = []string{"secret", "private"}

// sensitiveValues match secrets regardless of the key they are logged under.
var sensitiveValues = []*regexp.Regexp{
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`), // JWT
	regexp.MustCompile(`(?i)^bearer\s+.+$`),
	regexp.MustCompile(`(?i)^basic\s+.+$`),
	regexp.MustCompile(`^postgres(ql)?://[^:/@]+:[^@]+@`),
}

// DefaultRedactOptions returns the masq options every logger is built with.
// Append to them for additional fields or types:
//
//	opts := append(logging.DefaultRedactOptions(), masq.WithType[MySecretType]())
func DefaultRedactOptions() []masq.Option {
	opts := make([]masq.Option, 0, len(sensitiveFields)+len(sensitivePrefixes)+len(sensitiveValues))

	for _, name := range sensitiveFields {
		opts = append(opts, masq.WithFieldName(name))
	}

	for _, prefix := range sensitivePrefixes {
		opts = append(opts, masq.WithFieldPrefix(prefix))
	}

	for _, re := range sensitiveValues {
		opts = append(opts, masq.WithRegex(re))
	}

	return opts
}

// NewReplaceAttr returns a slog ReplaceAttr func that redacts with
// DefaultRedactOptions plus opts.
func NewReplaceAttr(opts ...masq.Option) func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(append(DefaultRedactOptions(), opts...)...)
}
