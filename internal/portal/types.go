package portal

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// Page is the envelope returned by the list endpoints.
type Page[T any] struct {
	PaginationToken *string `json:"paginationToken,omitempty"`
	Result          []T     `json:"result"`
}

// SearchMetadata is only populated when the instance came back from a
// search style query.
type SearchMetadata struct {
	AccountID    string `json:"AccountId"`
	AccountName  string `json:"AccountName"`
	AccountEmail string `json:"AccountEmail"`
}

func (s *SearchMetadata) UnmarshalJSON(b []byte) error {
	type searchMetadata SearchMetadata
	if err := requireKeys(b, "AccountId", "AccountName", "AccountEmail"); err != nil {
		return fmt.Errorf("searchMetadata: %w", err)
	}
	return json.Unmarshal(b, (*searchMetadata)(s))
}

// AppInstance is an application registered in the identity provider,
// for AWS accounts there is one per account.
type AppInstance struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	ApplicationID   string          `json:"applicationId"`
	ApplicationName string          `json:"applicationName"`
	Icon            string          `json:"icon"`
	SearchMetadata  *SearchMetadata `json:"searchMetadata,omitempty"`
}

func (a *AppInstance) UnmarshalJSON(b []byte) error {
	type appInstance AppInstance
	if err := requireKeys(b, "id", "name", "description", "applicationId", "applicationName", "icon"); err != nil {
		return fmt.Errorf("appInstance: %w", err)
	}
	return json.Unmarshal(b, (*appInstance)(a))
}

// Profile is a role exposed by an app instance.
type Profile struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	URL         string  `json:"url"`
	Protocol    string  `json:"protocol"`
	RelayState  *string `json:"relayState,omitempty"`
}

func (p *Profile) UnmarshalJSON(b []byte) error {
	type profile Profile
	if err := requireKeys(b, "id", "name", "description", "url", "protocol"); err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	return json.Unmarshal(b, (*profile)(p))
}

// Account pairs an app instance with the profiles it exposes.
type Account struct {
	Instance AppInstance
	Profiles []Profile
}

// Credentials are the temporary role credentials handed to callers.
// Expiration is absolute, the client never checks it.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Expiration      time.Time
}

// AWS returns the credentials in the SDK's representation.
func (c *Credentials) AWS(source string) aws.Credentials {
	return aws.Credentials{
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		SessionToken:    c.SessionToken,
		Source:          source,
		CanExpire:       true,
		Expires:         c.Expiration,
	}
}

// roleCredentials is the wire shape of the federation endpoint.
type roleCredentials struct {
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
	SessionToken    string `json:"sessionToken"`
	// epoch milliseconds
	Expiration int64 `json:"expiration"`
}

func (r *roleCredentials) UnmarshalJSON(b []byte) error {
	type wire roleCredentials
	if err := requireKeys(b, "accessKeyId", "secretAccessKey", "sessionToken", "expiration"); err != nil {
		return fmt.Errorf("roleCredentials: %w", err)
	}
	return json.Unmarshal(b, (*wire)(r))
}

func (r roleCredentials) toCredentials() *Credentials {
	return &Credentials{
		AccessKeyID:     r.AccessKeyID,
		SecretAccessKey: r.SecretAccessKey,
		SessionToken:    r.SessionToken,
		Expiration:      time.UnixMilli(r.Expiration).UTC(),
	}
}

type roleCredentialsResponse struct {
	RoleCredentials *roleCredentials `json:"roleCredentials"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// requireKeys fails when any of keys is absent or null in the JSON object b.
// An exact match decides, other case variants are only consulted when there
// is none, mirroring how encoding/json assigns fields.
func requireKeys(b []byte, keys ...string) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for _, key := range keys {
		if !hasKey(raw, key) {
			return fmt.Errorf("missing field %q", key)
		}
	}
	return nil
}

func hasKey(raw map[string]json.RawMessage, key string) bool {
	if v, ok := raw[key]; ok {
		return string(v) != "null"
	}
	for k, v := range raw {
		if strings.EqualFold(k, key) && string(v) != "null" {
			return true
		}
	}
	return false
}
