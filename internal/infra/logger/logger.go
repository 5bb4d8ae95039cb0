package logger

import (
	"context"
	"net"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	lg   *zap.Logger
	once sync.Once
)

// New returns the process-wide zap.Logger. Production gets JSON output;
// everything else gets the console encoder with colored levels.
func New(env string) (*zap.Logger, error) {
	var err error
	once.Do(func() {
		var cfg zap.Config
		if env == "production" {
			cfg = zap.NewProductionConfig()
			cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		} else {
			cfg = zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}

		lg, err = cfg.Build()
	})

	return lg, err
}

// RequestIDKey is used to store a request identifier on the context.
type RequestIDKey struct{}

// WithContext attaches request scoped fields to the logger.
func WithContext(ctx context.Context) *zap.Logger {
	if lg == nil {
		lz, _ := zap.NewDevelopment()
		return lz
	}

	if ctx == nil {
		return lg
	}

	if id, ok := ctx.Value(RequestIDKey{}).(string); ok && id != "" {
		return lg.With(zap.String("request_id", id))
	}
	return lg
}

// MaskEmail keeps up to three characters of the local part and the domain.
// Example: john.doe@example.com -> joh***@example.com
func MaskEmail(email string) string {
	if email == "" {
		return ""
	}

	local, domain, found := strings.Cut(email, "@")
	if !found || domain == "" {
		return "***"
	}

	keep := len(local)
	if keep > 3 {
		keep = 3
	}
	return local[:keep] + "***@" + domain
}

// MaskPhone keeps the leading country-code digits and the last four.
// Example: +573001234567 -> +57***4567
func MaskPhone(phone string) string {
	if phone == "" {
		return ""
	}

	digits := phone
	prefix := ""
	if strings.HasPrefix(digits, "+") {
		digits = digits[1:]
		prefix = "+"
	}

	if len(digits) < 8 {
		if len(digits) > 4 {
			return "***" + digits[len(digits)-4:]
		}
		return "***"
	}

	cc := len(digits) - 8
	if cc > 2 {
		cc = 2
	}
	return prefix + digits[:cc] + "***" + digits[len(digits)-4:]
}

// MaskIP keeps the first two IPv4 octets or the first two IPv6 groups.
func MaskIP(ip string) string {
	if ip == "" {
		return ""
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "***"
	}

	if v4 := parsed.To4(); v4 != nil {
		parts := strings.Split(v4.String(), ".")
		return parts[0] + "." + parts[1] + ".*.*"
	}

	groups := strings.Split(parsed.String(), ":")
	if len(groups) < 2 {
		return "***"
	}
	return groups[0] + ":" + groups[1] + "::*"
}

// MaskString keeps the first and last two characters of a sensitive value.
func MaskString(s string) string {
	if len(s) <= 4 {
		if s == "" {
			return ""
		}
		return "***"
	}
	return s[:2] + "***" + s[len(s)-2:]
}
