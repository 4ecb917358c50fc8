package credentialexchange

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
	"github.com/dnitsch/aws-sso-portal/internal/portal"
)

var (
	ErrUnableToValidate    = errors.New("unable to validate credentials")
	ErrUnableSessionCreate = errors.New("unable to create a session")
)

// error codes STS returns for credentials that are no longer usable
var invalidCredentialCodes = map[string]bool{
	"ExpiredToken":                true,
	"InvalidClientTokenId":        true,
	"UnrecognizedClientException": true,
}

// AWSCredentials is the persisted form of the credentials, its JSON
// encoding is the credential_process payload.
type AWSCredentials struct {
	Version         int
	AWSAccessKey    string    `json:"AccessKeyId"`
	AWSSecretKey    string    `json:"SecretAccessKey"`
	AWSSessionToken string    `json:"SessionToken"`
	PrincipalARN    string    `json:"-"`
	Expires         time.Time `json:"Expiration"`
}

// FromPortal converts credentials issued by the SSO portal.
func FromPortal(creds *portal.Credentials) *AWSCredentials {
	return &AWSCredentials{
		Version:         1,
		AWSAccessKey:    creds.AccessKeyID,
		AWSSecretKey:    creds.SecretAccessKey,
		AWSSessionToken: creds.SessionToken,
		Expires:         creds.Expiration.Local(),
	}
}

// AuthApi is the part of the STS client used for validation
type AuthApi interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// NewStsClient returns an STS client that signs with creds.
func NewStsClient(ctx context.Context, creds *AWSCredentials, region string) (*sts.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			creds.AWSAccessKey,
			creds.AWSSecretKey,
			creds.AWSSessionToken,
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %s, %w", err, ErrUnableSessionCreate)
	}
	return sts.NewFromConfig(cfg), nil
}

// IsValid checks the credentials against STS and the reload window.
// Credentials STS reports as expired or unknown are invalid, not an error.
func IsValid(ctx context.Context, currentCreds *AWSCredentials, reloadBeforeTime int, svc AuthApi) (bool, error) {
	if currentCreds == nil {
		return false, nil
	}

	out, err := svc.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && invalidCredentialCodes[apiErr.ErrorCode()] {
			return false, nil
		}
		return false, fmt.Errorf("the previous credential isn't valid: %s, %w", err, ErrUnableToValidate)
	}

	if ReloadBeforeExpiry(currentCreds.Expires, reloadBeforeTime) {
		return false, nil
	}

	currentCreds.PrincipalARN = aws.ToString(out.Arn)
	return true, nil
}
