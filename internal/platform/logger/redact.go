package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"
)

const redacted = "[REDACTED]"

// Credentials and free-text wellness content never reach the log. Identifiers are
// hashed so one user's lines can still be correlated.
var (
	redactFragments = []string{"token", "authorization", "secret", "password", "api_key", "email", "content", "user_input", "answer"}
	hashFragments   = []string{"user_id", "external_id"}
	hashExact       = map[string]bool{"subject": true}
)

type policy struct {
	enabled bool
	salt    string
}

var (
	policyOnce sync.Once
	policyVal  policy
)

// activePolicy reads LOG_REDACTION_ENABLED (default on) and LOG_HASH_SALT once.
func activePolicy() policy {
	policyOnce.Do(func() {
		policyVal = policy{enabled: true, salt: strings.TrimSpace(os.Getenv("LOG_HASH_SALT"))}
		switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_REDACTION_ENABLED"))) {
		case "0", "false", "no", "off":
			policyVal.enabled = false
		}
	})
	return policyVal
}

func (p policy) apply(kv []interface{}) []interface{} {
	if !p.enabled || len(kv) == 0 {
		return kv
	}
	out := make([]interface{}, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		key := toString(kv[i])
		out = append(out, key, p.value(strings.ToLower(strings.TrimSpace(key)), kv[i+1]))
	}
	if len(kv)%2 == 1 {
		out = append(out, kv[len(kv)-1])
	}
	return out
}

func (p policy) value(key string, val interface{}) interface{} {
	if key == "" {
		return val
	}
	if containsAny(key, redactFragments) {
		return redacted
	}
	if hashExact[key] || containsAny(key, hashFragments) {
		return p.hash(val)
	}
	if s, ok := val.(string); ok && looksLikeJWT(s) {
		return redacted
	}
	return val
}

func (p policy) hash(val interface{}) string {
	raw := toString(val)
	if raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(p.salt + raw))
	return "hash:" + hex.EncodeToString(sum[:])[:12]
}

func containsAny(s string, frags []string) bool {
	for _, f := range frags {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}

func looksLikeJWT(s string) bool {
	parts := strings.Split(s, ".")
	return len(parts) == 3 && len(parts[0]) > 10 && len(parts[1]) > 10
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
