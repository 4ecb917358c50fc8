package credentialexchange

import "fmt"

const (
	SELF_NAME             = "aws-sso-portal"
	INI_CONF_SECTION      = "role"
	CONF_DEFAULTS_SECTION = "defaults"
)

type BaseConfig struct {
	Username         string
	CfgSectionName   string `ini:"cfg-section"`
	StoreInProfile   bool   `ini:"store-profile"`
	ReloadBeforeTime int    `ini:"reload-before"`
	Validate         bool   `ini:"validate"`
}

type CredentialConfig struct {
	BaseConfig BaseConfig `ini:"-"`
	OrgId      string     `ini:"org-id"`
	Region     string     `ini:"region"`
	AccountId  string     `ini:"account-id"`
	RoleName   string     `ini:"role-name"`
	// PortalUrl overrides the regional portal, mostly useful for testing
	PortalUrl string `ini:"portal-url"`
	// AuthCode is single use so it is never read from the config file
	AuthCode string `ini:"-"`
}

// RoleArn returns the ARN style identifier of the account/role pair,
// used as the key for stored credentials.
func (c CredentialConfig) RoleArn() string {
	return fmt.Sprintf("arn:aws:iam::%s:role/%s", c.AccountId, c.RoleName)
}
