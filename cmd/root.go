package cmd

import (
	"os/user"

	"github.com/dnitsch/aws-sso-portal/internal/credentialexchange"
	"github.com/dnitsch/aws-sso-portal/internal/util"
	"github.com/spf13/cobra"
)

var (
	verbose        bool
	orgId          string
	region         string
	authCode       string
	portalUrl      string
	cfgSectionName string
	storeInProfile bool
	conf           credentialexchange.CredentialConfig
	RootCmd        = &cobra.Command{
		Use:   credentialexchange.SELF_NAME,
		Short: "CLI tool for retrieving AWS temporary credentials from the AWS SSO portal",
		Long: `CLI tool for retrieving AWS temporary credentials from the AWS SSO user portal.
Signs in with the authorization code of an interactive login, lists the accounts and roles assigned to the user
and exchanges an account/role pair for temporary credentials.
Stores them under the $HOME/.aws/credentials file under a specified path or returns the credential_process payload for use in config.
Defaults for every flag can be set in the [defaults] section of $HOME/.aws-sso-portal.ini`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
)

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		util.Exit(err)
	}
}

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	RootCmd.PersistentFlags().StringVarP(&orgId, "org-id", "o", "", "Organisation id of the SSO instance, e.g. d-1234567890")
	RootCmd.PersistentFlags().StringVarP(&region, "region", "", "", "Region the SSO instance lives in")
	RootCmd.PersistentFlags().StringVarP(&authCode, "auth-code", "c", "", "Single use authorization code obtained from the interactive login")
	RootCmd.PersistentFlags().StringVarP(&portalUrl, "portal-url", "", "", "Override the regional portal url")
	RootCmd.PersistentFlags().StringVarP(&cfgSectionName, "cfg-section", "", "", "config section name in the AWS shared credentials file")
	RootCmd.PersistentFlags().BoolVarP(&storeInProfile, "store-profile", "s", false, "By default the credentials are returned to stdout to be used by the credential_process. Set this flag to instead store the credentials under a named profile section")
}

// initConfig reads the defaults from the config file, flags set on the
// command line win.
func initConfig(cmd *cobra.Command, args []string) error {
	util.ConfigureLogging(verbose)

	conf = credentialexchange.CredentialConfig{}
	if err := credentialexchange.LoadCredentialConfig(credentialexchange.ConfigIniFile(""), &conf); err != nil {
		return err
	}

	flags := cmd.Flags()
	override := func(name string, dst *string, val string) {
		if flags.Changed(name) {
			*dst = val
		}
	}
	override("org-id", &conf.OrgId, orgId)
	override("region", &conf.Region, region)
	override("portal-url", &conf.PortalUrl, portalUrl)
	override("cfg-section", &conf.BaseConfig.CfgSectionName, cfgSectionName)
	override("account-id", &conf.AccountId, accountId)
	override("role", &conf.RoleName, roleName)
	if flags.Changed("store-profile") {
		conf.BaseConfig.StoreInProfile = storeInProfile
	}
	if flags.Changed("validate") {
		conf.BaseConfig.Validate = validate
	}
	if flags.Changed("reload-before") {
		conf.BaseConfig.ReloadBeforeTime = reloadBeforeTime
	}
	conf.AuthCode = authCode

	if u, err := user.Current(); err == nil {
		conf.BaseConfig.Username = u.Username
	}
	return nil
}
