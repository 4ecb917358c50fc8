package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	tokenPath        = "/auth/sso-token"
	appInstancesPath = "/instance/appinstances"
	profilesPathFmt  = "/instance/appinstance/%s/profiles"
	credentialsPath  = "/federation/credentials/"

	// the portal accepts either spelling depending on deployment
	bearerHeaderUnderscore = "x-amz-sso_bearer_token"
	bearerHeaderDash       = "x-amz-sso-bearer-token"

	defaultTimeout = 30 * time.Second
)

// Client talks to the SSO portal on behalf of one signed in session.
// Its fields are never modified after New so it is safe for concurrent use.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	log        logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL points the client at a portal other than the regional one.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// BaseURL returns the portal origin for region.
func BaseURL(region string) string {
	return fmt.Sprintf("https://portal.sso.%s.amazonaws.com", region)
}

// New exchanges authCode for a bearer token and returns a ready client.
// The code is single use and is consumed by the portal even on failure.
func New(ctx context.Context, orgID, authCode, region string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:    BaseURL(region),
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	form := url.Values{}
	form.Set("authCode", authCode)
	form.Set("orgId", orgID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %s, %w", err, ErrTransport)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	c.log.WithField("path", tokenPath).Trace("received token response")

	tr := tokenResponse{}
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("token response: %s, %w", err, ErrDecode)
	}
	if tr.Token == "" {
		return nil, fmt.Errorf("token response: missing field \"token\", %w", ErrDecode)
	}

	c.token = tr.Token
	return c, nil
}

// Token returns the bearer token bound to this client.
func (c *Client) Token() string {
	return c.token
}

// BaseURL returns the portal origin this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// AppInstances lists the app instances visible to the signed in user.
func (c *Client) AppInstances(ctx context.Context) ([]AppInstance, error) {
	return list[AppInstance](ctx, c, appInstancesPath)
}

// Profiles lists the role profiles exposed under appInstanceID.
func (c *Client) Profiles(ctx context.Context, appInstanceID string) ([]Profile, error) {
	return list[Profile](ctx, c, fmt.Sprintf(profilesPathFmt, url.PathEscape(appInstanceID)))
}

// Credentials exchanges an account and role for temporary role credentials.
func (c *Client) Credentials(ctx context.Context, accountID, roleName string) (*Credentials, error) {
	c.log.WithFields(logrus.Fields{"account_id": accountID, "role_name": roleName}).Debug("requesting credentials")

	query := url.Values{}
	query.Set("account_id", accountID)
	query.Set("role_name", roleName)
	query.Set("debug", "true")

	req, err := c.authenticatedRequest(ctx, credentialsPath+"?"+query.Encode())
	if err != nil {
		return nil, err
	}
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	rc := roleCredentialsResponse{}
	if err := json.Unmarshal(body, &rc); err != nil {
		return nil, fmt.Errorf("credentials response: %s, %w", err, ErrDecode)
	}
	if rc.RoleCredentials == nil {
		return nil, fmt.Errorf("credentials response: missing field \"roleCredentials\", %w", ErrDecode)
	}
	return rc.RoleCredentials.toCredentials(), nil
}

// list fetches a single page from path. A pagination token in the response
// is logged and otherwise ignored.
func list[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	req, err := c.authenticatedRequest(ctx, path)
	if err != nil {
		return nil, err
	}
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	c.log.WithField("path", path).Tracef("received %s", body)

	page := Page[T]{}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("%s: %s, %w", path, err, ErrDecode)
	}
	if page.Result == nil {
		return nil, fmt.Errorf("%s: missing field \"result\", %w", path, ErrDecode)
	}
	if page.PaginationToken != nil && *page.PaginationToken != "" {
		c.log.WithField("path", path).Warn("portal returned more results than the first page, only the first page is used")
	}
	return page.Result, nil
}

func (c *Client) authenticatedRequest(ctx context.Context, pathAndQuery string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathAndQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %s, %w", pathAndQuery, err, ErrTransport)
	}
	req.Header.Set(bearerHeaderUnderscore, c.token)
	req.Header.Set(bearerHeaderDash, c.token)
	return req, nil
}

// do sends req once and returns the body of a 2xx response.
// Bodies are not logged here since the credentials endpoint returns secrets.
func (c *Client) do(req *http.Request) ([]byte, error) {
	c.log.WithFields(logrus.Fields{"method": req.Method, "path": req.URL.Path}).Debug("calling portal")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %s, %w", req.Method, req.URL.Path, err, ErrTransport)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %s, %w", req.URL.Path, err, ErrTransport)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &ResponseError{Endpoint: req.URL.Path, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
