package data

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// fakeGitHubClient answers every request with the given JSON body.
func fakeGitHubClient(body string) *http.Client {
	return &http.Client{
		Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(body)),
				Header:     http.Header{"Content-Type": []string{"application/json"}},
				Request:    r,
			}, nil
		}),
	}
}

func TestFetchRepoMeta(t *testing.T) {
	client := fakeGitHubClient(`{
		"name": "alpha",
		"description": "reference implementation",
		"stargazers_count": 42,
		"forks_count": 7,
		"open_issues_count": 3,
		"language": "Python",
		"archived": false,
		"pushed_at": "2026-01-02T00:00:00Z",
		"license": {"spdx_id": "MIT"}
	}`)

	m, err := FetchRepoMeta(context.Background(), client, &EnrichTarget{
		PaperID: "P001",
		Org:     "org1",
		Repo:    "alpha",
	})
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.Equal(t, "P001", m.PaperID)
	assert.Equal(t, "org1", m.Org)
	assert.Equal(t, 42, m.Stars)
	assert.Equal(t, 7, m.Forks)
	assert.Equal(t, 3, m.OpenIssues)
	assert.Equal(t, "Python", m.Language)
	assert.Equal(t, "MIT", m.License)
	assert.False(t, m.Archived)
	assert.Equal(t, "2026-01-02", m.PushedAt)
	assert.NotEmpty(t, m.UpdatedAt)
}

func TestFetchRepoMeta_InvalidTarget(t *testing.T) {
	_, err := FetchRepoMeta(context.Background(), http.DefaultClient, nil)
	assert.Error(t, err)

	_, err = FetchRepoMeta(context.Background(), http.DefaultClient, &EnrichTarget{PaperID: "P001"})
	assert.Error(t, err)
}

func TestFetchOwnerReputation(t *testing.T) {
	client := fakeGitHubClient(`{
		"login": "org1",
		"created_at": "2015-04-01T00:00:00Z",
		"followers": 120,
		"following": 10,
		"public_repos": 40,
		"bio": "research tooling",
		"company": "ACME",
		"location": "Berlin",
		"blog": "https://example.com"
	}`)

	rep, err := FetchOwnerReputation(context.Background(), client, "org1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, rep, 0.0)
	assert.LessOrEqual(t, rep, 1.0)
}

func TestFetchOwnerReputation_EmptyOwner(t *testing.T) {
	_, err := FetchOwnerReputation(context.Background(), http.DefaultClient, "")
	assert.Error(t, err)
}

func TestToDate(t *testing.T) {
	assert.Empty(t, toDate(nil))
}
