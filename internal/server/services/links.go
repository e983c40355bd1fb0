package services

import (
	"fmt"
	"net/url"
)

// Links builds the token-bearing URLs handed to the notifier.
type Links struct {
	base *url.URL
}

func NewLinks(baseURL string) (*Links, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid public base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid public base url %q: scheme and host required", baseURL)
	}
	return &Links{base: u}, nil
}

func (l *Links) Verification(token string) string {
	return l.build("/verify-email", token)
}

func (l *Links) PasswordReset(token string) string {
	return l.build("/reset-password", token)
}

func (l *Links) UsernameRecovery(token string) string {
	return l.build("/recover-username", token)
}

func (l *Links) build(path, token string) string {
	u := l.base.JoinPath(path)
	u.RawQuery = url.Values{"token": {token}}.Encode()
	return u.String()
}
