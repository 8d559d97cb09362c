package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

var (
	// ErrGraphQL wraps errors reported in a GraphQL response body.
	ErrGraphQL = errors.New("graphql error")

	// ErrHTTPStatus wraps non-2xx responses from the workspace.
	ErrHTTPStatus = errors.New("unexpected HTTP status")
)

// Executor runs one GraphQL operation and returns its data member.
type Executor interface {
	Execute(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error)
}

// HTTPExecutor posts GraphQL requests to an endpoint.
type HTTPExecutor struct {
	Client   *http.Client
	Endpoint string
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Execute implements Executor.
func (e *HTTPExecutor) Execute(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", e.Endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w %d: %s", ErrHTTPStatus, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Errors) > 0 {
		msgs := make([]string, len(out.Errors))
		for i, ge := range out.Errors {
			msgs[i] = ge.Message
		}
		return nil, fmt.Errorf("%w: %s", ErrGraphQL, strings.Join(msgs, "; "))
	}
	return out.Data, nil
}

// WorkspaceOptions address a workspace. GraphQLURL and TokenURL default to
// the standard paths under Host.
type WorkspaceOptions struct {
	Host       string
	APIToken   string
	GraphQLURL string
	TokenURL   string
	Timeout    time.Duration
}

func (o WorkspaceOptions) endpoints() (graphqlURL, tokenURL string) {
	graphqlURL, tokenURL = o.GraphQLURL, o.TokenURL
	if graphqlURL == "" {
		graphqlURL = "https://" + o.Host + "/services/pathfinder/v1/graphql"
	}
	if tokenURL == "" {
		tokenURL = "https://" + o.Host + "/services/mtm/v1/oauth2/token"
	}
	return graphqlURL, tokenURL
}

// NewWorkspaceExecutor returns an executor that authenticates by exchanging
// the API token for a bearer token with the client-credentials grant. Tokens
// are refreshed on expiry.
func NewWorkspaceExecutor(ctx context.Context, opts WorkspaceOptions) *HTTPExecutor {
	graphqlURL, tokenURL := opts.endpoints()
	cc := clientcredentials.Config{
		ClientID:     "apitoken",
		ClientSecret: opts.APIToken,
		TokenURL:     tokenURL,
	}
	client := cc.Client(ctx)
	client.Timeout = opts.Timeout
	return &HTTPExecutor{Client: client, Endpoint: graphqlURL}
}
