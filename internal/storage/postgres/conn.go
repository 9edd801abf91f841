package postgres

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	pq "github.com/lib/pq"

	"github.com/julianstephens/nextstep/internal/constants"
)

var (
	ErrInvalidConnectionString = errors.New("invalid PostgreSQL connection string")
	ErrEmbeddedCredentials     = errors.New("connection string must not contain a password")
)

// IsConnString reports whether dsn selects the PostgreSQL backend.
func IsConnString(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// keywordParams parses the key=value form into lower-cased keys.
// Values containing spaces are not supported.
func keywordParams(connStr string) map[string]string {
	params := make(map[string]string)
	for _, field := range strings.Fields(connStr) {
		k, v, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		params[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return params
}

// hasParam looks for key in either the URL query or the keyword form.
func hasParam(connStr, key string) bool {
	if u, err := url.Parse(connStr); err == nil && u.Scheme != "" {
		for k := range u.Query() {
			if strings.EqualFold(k, key) {
				return true
			}
		}
	}
	_, ok := keywordParams(connStr)[key]
	return ok
}

func hasSearchPathParam(connStr string) bool { return hasParam(connStr, "search_path") }

func hasSSLMode(connStr string) bool { return hasParam(connStr, "sslmode") }

// withSearchPath pins the nextstep schema unless the caller chose one.
func withSearchPath(connStr string) (string, error) {
	if !IsConnString(connStr) {
		if hasSearchPathParam(connStr) {
			return connStr, nil
		}
		return strings.TrimSpace(connStr) + " search_path=" + constants.AppName, nil
	}
	u, err := url.Parse(connStr)
	if err != nil {
		return connStr, err
	}
	q := u.Query()
	if q.Get("search_path") != "" {
		return connStr, nil
	}
	q.Set("search_path", constants.AppName)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ValidateConnString accepts URL and keyword connection strings that
// carry no password. Passwords belong in ~/.pgpass or PGPASSWORD.
func ValidateConnString(connStr string) (bool, error) {
	if strings.TrimSpace(connStr) == "" {
		return false, fmt.Errorf("%w: connection string cannot be empty", ErrInvalidConnectionString)
	}
	if _, err := pq.NewConnector(connStr); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidConnectionString, err)
	}

	if !IsConnString(connStr) {
		if _, ok := keywordParams(connStr)["password"]; ok {
			return false, ErrEmbeddedCredentials
		}
		return true, nil
	}

	u, err := url.Parse(connStr)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidConnectionString, err)
	}
	if _, set := u.User.Password(); set {
		return false, ErrEmbeddedCredentials
	}
	if u.Host == "" && u.User == nil && strings.Trim(u.Path, "/") == "" {
		return false, fmt.Errorf("%w: connection URL is incomplete", ErrInvalidConnectionString)
	}
	return true, nil
}
