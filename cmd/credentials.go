package cmd

import (
	"github.com/dnitsch/aws-sso-portal/internal/cmdutils"
	"github.com/dnitsch/aws-sso-portal/internal/credentialexchange"
	"github.com/spf13/cobra"
)

var (
	accountId        string
	roleName         string
	validate         bool
	reloadBeforeTime int
	credentialsCmd   = &cobra.Command{
		Use:   "credentials <flags>",
		Short: "Get AWS credentials for an account and role from the portal",
		Long: `Exchanges the signed in session for temporary credentials of the given account and role.
The credentials are kept in the OS secret store so that the export command can hand them out again`,
		RunE: getCredentials,
	}
	exportCmd = &cobra.Command{
		Use:   "export <flags>",
		Short: "Returns credentials previously retrieved for an account and role",
		Long: `Returns the credentials stored by a previous run of the credentials command without calling the portal.
Fails if there are none or they are about to expire, run credentials again in that case`,
		RunE: exportCredentials,
	}
)

func init() {
	for _, c := range []*cobra.Command{credentialsCmd, exportCmd} {
		c.Flags().StringVarP(&accountId, "account-id", "", "", "Id of the AWS account")
		c.Flags().StringVarP(&roleName, "role", "r", "", "Name of the role, as listed by the accounts command")
		c.Flags().BoolVarP(&validate, "validate", "", false, "Check the credentials with STS GetCallerIdentity before returning them")
	}
	exportCmd.Flags().IntVarP(&reloadBeforeTime, "reload-before", "", 0, "Treat credentials expiring within this many seconds as missing")
	RootCmd.AddCommand(credentialsCmd)
	RootCmd.AddCommand(exportCmd)
}

func secretStore() (*credentialexchange.SecretStore, error) {
	return credentialexchange.NewSecretStore(conf.RoleArn(), credentialexchange.HomeDir(), conf.BaseConfig.Username)
}

func getCredentials(cmd *cobra.Command, args []string) error {
	store, err := secretStore()
	if err != nil {
		return err
	}
	client, err := cmdutils.NewPortal(cmd.Context(), conf)
	if err != nil {
		return err
	}
	return cmdutils.GetPortalCreds(cmd.Context(), client, store, conf, cmdutils.StsAuthApi(conf.Region), cmd.OutOrStdout())
}

func exportCredentials(cmd *cobra.Command, args []string) error {
	store, err := secretStore()
	if err != nil {
		return err
	}
	return cmdutils.StoredCreds(cmd.Context(), store, conf, cmdutils.StsAuthApi(conf.Region), cmd.OutOrStdout())
}
