// Package net provides the HTTP clients used for GitHub enrichment.
package net

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const (
	maxIdleConns     = 10
	timeoutInSeconds = 60
)

var reqTransport = &http.Transport{
	MaxIdleConns:          maxIdleConns,
	IdleConnTimeout:       timeoutInSeconds * time.Second,
	ResponseHeaderTimeout: timeoutInSeconds * time.Second,
}

// GetOAuthClient returns an HTTP client that injects the GitHub token.
func GetOAuthClient(ctx context.Context, token string) *http.Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{
			TokenType:   "token",
			AccessToken: token,
		},
	)
	return oauth2.NewClient(ctx, ts)
}

// GetHTTPClient returns an unauthenticated client with sane timeouts,
// used by the device-flow auth endpoints.
func GetHTTPClient() (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cookie jar")
	}

	return &http.Client{
		Timeout:   timeoutInSeconds * time.Second,
		Transport: reqTransport,
		Jar:       jar,
	}, nil
}
