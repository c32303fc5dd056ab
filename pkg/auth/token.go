// Package auth implements the GitHub device authorization flow used
// to obtain the token for the enrichment commands.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/coderunners/reprod/pkg/net"
)

const (
	deviceCodeURL = "https://github.com/login/device/code"
	accessCodeURL = "https://github.com/login/oauth/access_token"
	deviceScopes  = "" // read-only public access, no scopes requested
	grantType     = "urn:ietf:params:oauth:grant-type:device_code"
)

// DeviceCode is the GitHub device authorization challenge: the user
// enters UserCode at VerificationURL while the device polls with
// DeviceCode until the grant completes or ExpiresInSec passes.
type DeviceCode struct {
	DeviceCode      string `json:"device_code,omitempty"`
	UserCode        string `json:"user_code,omitempty"`
	VerificationURL string `json:"verification_uri,omitempty"`
	ExpiresInSec    int    `json:"expires_in,omitempty"`
	Interval        int    `json:"interval,omitempty"`
}

type AccessTokenResponse struct {
	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
	Scope       string `json:"scope,omitempty"`
}

// GetDeviceCode starts the device flow for the given OAuth app.
func GetDeviceCode(clientID string) (*DeviceCode, error) {
	if clientID == "" {
		return nil, errors.New("clientID is required")
	}

	q := url.Values{}
	q.Set("client_id", clientID)
	q.Set("scope", deviceScopes)

	res, err := postForm(deviceCodeURL, q)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body := ""
		if b, readErr := io.ReadAll(res.Body); readErr == nil {
			body = string(b)
		}
		return nil, fmt.Errorf("failed to get device code: %s - %s", res.Status, body)
	}

	var dc DeviceCode
	if err := json.NewDecoder(res.Body).Decode(&dc); err != nil {
		return nil, fmt.Errorf("failed to decode device code response: %w", err)
	}

	return &dc, nil
}

// GetToken exchanges a completed device grant for an access token.
func GetToken(clientID string, code *DeviceCode) (*AccessTokenResponse, error) {
	if clientID == "" {
		return nil, errors.New("clientID is required")
	}
	if code == nil {
		return nil, errors.New("device code is nil")
	}

	expiresAt := time.Now().UTC().Add(time.Duration(code.ExpiresInSec) * time.Second)

	q := url.Values{}
	q.Set("client_id", clientID)
	q.Set("device_code", code.DeviceCode)
	q.Set("grant_type", grantType)

	res, err := postForm(accessCodeURL, q)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var t AccessTokenResponse
	if err := json.NewDecoder(res.Body).Decode(&t); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	if time.Now().UTC().After(expiresAt) {
		return nil, errors.New("device code expired before the grant completed")
	}
	if t.AccessToken == "" {
		return nil, errors.New("access token is empty")
	}

	return &t, nil
}

func postForm(endpoint string, q url.Values) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Add("content-type", "application/x-www-form-urlencoded")
	req.Header.Add("Accept", "application/json")

	client, err := net.GetHTTPClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get http client: %w", err)
	}

	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	return res, nil
}
