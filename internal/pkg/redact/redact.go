package redact

import (
	"net/url"
	"strings"
)

// Email скрывает локальную часть адреса, оставляя первые две руны.
func Email(s string) string {
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return "***"
	}

	local, domain := []rune(parts[0]), parts[1]
	if len(local) > 2 {
		return string(local[:2]) + "***@" + domain
	}

	return "***@" + domain
}

// PurchaseCode оставляет только последние четыре символа кода покупки.
func PurchaseCode(s string) string {
	if len(s) <= 4 {
		return "***"
	}

	return "***" + s[len(s)-4:]
}

func Token() string { return "[REDACTED_TOKEN]" }

// secretParams — параметры запроса, значения которых не попадают в журнал.
var secretParams = []string{"access_token", "refresh_token", "code"}

// RequestURI — путь и запрос u, где значения секретных параметров
// заменены на Token().
func RequestURI(u *url.URL) string {
	if u.RawQuery == "" {
		return u.RequestURI()
	}

	q := u.Query()
	masked := false
	for _, name := range secretParams {
		if _, ok := q[name]; ok {
			q.Set(name, Token())
			masked = true
		}
	}
	if !masked {
		return u.RequestURI()
	}

	c := *u
	c.RawQuery = q.Encode()

	return c.RequestURI()
}
