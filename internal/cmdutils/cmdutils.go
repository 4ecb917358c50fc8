package cmdutils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dnitsch/aws-sso-portal/internal/credentialexchange"
	"github.com/dnitsch/aws-sso-portal/internal/portal"
	"github.com/sirupsen/logrus"
)

var (
	ErrMissingArg          = errors.New("missing arg")
	ErrUnableToValidate    = errors.New("unable to validate token")
	ErrNoStoredCredentials = errors.New("no usable stored credentials")
)

type SecretStorageImpl interface {
	AWSCredential() (*credentialexchange.AWSCredentials, error)
	Clear() error
	ClearAll() error
	SaveAWSCredential(cred *credentialexchange.AWSCredentials) error
}

// PortalApi is the part of the portal client the commands drive
type PortalApi interface {
	Accounts(ctx context.Context) ([]portal.Account, error)
	Credentials(ctx context.Context, accountID, roleName string) (*portal.Credentials, error)
}

// AuthApiFactory returns an STS client signing with creds
type AuthApiFactory func(ctx context.Context, creds *credentialexchange.AWSCredentials) (credentialexchange.AuthApi, error)

// StsAuthApi builds real STS clients in region.
func StsAuthApi(region string) AuthApiFactory {
	return func(ctx context.Context, creds *credentialexchange.AWSCredentials) (credentialexchange.AuthApi, error) {
		svc, err := credentialexchange.NewStsClient(ctx, creds, region)
		if err != nil {
			return nil, err
		}
		return svc, nil
	}
}

// NewPortal signs in to the portal with the single use auth code in conf.
func NewPortal(ctx context.Context, conf credentialexchange.CredentialConfig) (*portal.Client, error) {
	if conf.OrgId == "" || conf.AuthCode == "" {
		return nil, fmt.Errorf("org-id and auth-code must both be provided %w", ErrMissingArg)
	}
	if conf.Region == "" && conf.PortalUrl == "" {
		return nil, fmt.Errorf("region or portal-url must be provided %w", ErrMissingArg)
	}
	opts := []portal.Option{portal.WithLogger(logrus.StandardLogger())}
	if conf.PortalUrl != "" {
		opts = append(opts, portal.WithBaseURL(conf.PortalUrl))
	}
	return portal.New(ctx, conf.OrgId, conf.AuthCode, conf.Region, opts...)
}

func checkRoleArgs(conf credentialexchange.CredentialConfig) error {
	if conf.BaseConfig.CfgSectionName == "" && conf.BaseConfig.StoreInProfile {
		return fmt.Errorf("Config-Section name must be provided if store-profile is enabled %w", ErrMissingArg)
	}
	if conf.AccountId == "" || conf.RoleName == "" {
		return fmt.Errorf("account-id and role must both be provided %w", ErrMissingArg)
	}
	if conf.BaseConfig.Validate && conf.Region == "" {
		return fmt.Errorf("region must be provided to validate with STS %w", ErrMissingArg)
	}
	return nil
}

// GetPortalCreds exchanges the session for role credentials, optionally
// checks them with STS, stores them and writes them out.
func GetPortalCreds(ctx context.Context, svc PortalApi, secretStore SecretStorageImpl, conf credentialexchange.CredentialConfig, newAuthApi AuthApiFactory, out io.Writer) error {
	if err := checkRoleArgs(conf); err != nil {
		return err
	}

	creds, err := svc.Credentials(ctx, conf.AccountId, conf.RoleName)
	if err != nil {
		return err
	}
	awsCreds := credentialexchange.FromPortal(creds)

	if conf.BaseConfig.Validate {
		authApi, err := newAuthApi(ctx, awsCreds)
		if err != nil {
			return err
		}
		valid, err := credentialexchange.IsValid(ctx, awsCreds, 0, authApi)
		if err != nil {
			return fmt.Errorf("failed to validate: %s, %w", err, ErrUnableToValidate)
		}
		if !valid {
			return fmt.Errorf("issued credentials were rejected by STS, %w", ErrUnableToValidate)
		}
		logrus.WithField("principal", awsCreds.PrincipalARN).Debug("credentials validated")
	}

	return completeCredStorage(secretStore, awsCreds, conf, out)
}

// StoredCreds writes out the credentials persisted by a previous
// GetPortalCreds. Credentials inside the reload window, or rejected by STS
// when validation is on, are reported as ErrNoStoredCredentials.
func StoredCreds(ctx context.Context, secretStore SecretStorageImpl, conf credentialexchange.CredentialConfig, newAuthApi AuthApiFactory, out io.Writer) error {
	if err := checkRoleArgs(conf); err != nil {
		return err
	}

	storedCreds, err := secretStore.AWSCredential()
	if err != nil {
		return err
	}
	if storedCreds == nil {
		return fmt.Errorf("%s, %w", conf.RoleArn(), ErrNoStoredCredentials)
	}

	if conf.BaseConfig.Validate {
		authApi, err := newAuthApi(ctx, storedCreds)
		if err != nil {
			return err
		}
		credsValid, err := credentialexchange.IsValid(ctx, storedCreds, conf.BaseConfig.ReloadBeforeTime, authApi)
		if err != nil {
			return fmt.Errorf("failed to validate: %s, %w", err, ErrUnableToValidate)
		}
		if !credsValid {
			return fmt.Errorf("%s is no longer valid, %w", conf.RoleArn(), ErrNoStoredCredentials)
		}
	} else if credentialexchange.ReloadBeforeExpiry(storedCreds.Expires, conf.BaseConfig.ReloadBeforeTime) {
		return fmt.Errorf("%s expires at %s, %w", conf.RoleArn(), storedCreds.Expires, ErrNoStoredCredentials)
	}

	return credentialexchange.SetCredentials(storedCreds, conf, out)
}

// ListAccounts prints one line per account and role. Applications other
// than AWS accounts are skipped unless all is set.
func ListAccounts(ctx context.Context, svc PortalApi, all bool, out io.Writer) error {
	accounts, err := svc.Accounts(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ACCOUNT ID\tACCOUNT NAME\tROLE")
	for _, account := range accounts {
		if !all && !account.Instance.IsAWSAccount() {
			continue
		}
		id, ok := account.Instance.AccountID()
		if !ok {
			id = "-"
		}
		name, ok := account.Instance.AccountName()
		if !ok {
			name = account.Instance.Name
		}
		if len(account.Profiles) == 0 {
			fmt.Fprintf(w, "%s\t%s\t%s\n", id, name, "-")
			continue
		}
		for _, p := range account.Profiles {
			fmt.Fprintf(w, "%s\t%s\t%s\n", id, name, p.Name)
		}
	}
	return w.Flush()
}

// ClearStoredCreds removes every stored credential when all is set,
// otherwise only those of the configured account and role.
func ClearStoredCreds(secretStore SecretStorageImpl, conf credentialexchange.CredentialConfig, all bool) error {
	if all {
		if err := secretStore.ClearAll(); err != nil {
			return err
		}
		return credentialexchange.ClearIniSections()
	}
	if conf.AccountId == "" || conf.RoleName == "" {
		return fmt.Errorf("account-id and role must both be provided %w", ErrMissingArg)
	}
	return secretStore.Clear()
}

func completeCredStorage(secretStore SecretStorageImpl, awsCreds *credentialexchange.AWSCredentials, conf credentialexchange.CredentialConfig, out io.Writer) error {
	awsCreds.Version = 1
	if err := secretStore.SaveAWSCredential(awsCreds); err != nil {
		return err
	}
	return credentialexchange.SetCredentials(awsCreds, conf, out)
}
