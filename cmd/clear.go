package cmd

import (
	"github.com/dnitsch/aws-sso-portal/internal/cmdutils"
	"github.com/dnitsch/aws-sso-portal/internal/credentialexchange"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear-cache <flags>",
	Short: "Clears any stored credentials in the OS secret store",
	Long: `Clears the credentials stored for every account and role.
With --account-id and --role only the credentials of that pair are removed`,
	RunE: clearCache,
}

func init() {
	clearCmd.Flags().StringVarP(&accountId, "account-id", "", "", "Id of the AWS account to clear")
	clearCmd.Flags().StringVarP(&roleName, "role", "r", "", "Name of the role to clear")
	RootCmd.AddCommand(clearCmd)
}

func clearCache(cmd *cobra.Command, args []string) error {
	all := !cmd.Flags().Changed("account-id") && !cmd.Flags().Changed("role")
	roleArn := ""
	if !all {
		roleArn = conf.RoleArn()
	}
	store, err := credentialexchange.NewSecretStore(roleArn, credentialexchange.HomeDir(), conf.BaseConfig.Username)
	if err != nil {
		return err
	}
	if err := cmdutils.ClearStoredCreds(store, conf, all); err != nil {
		return err
	}
	logrus.Info("stored credentials cleared")
	return nil
}
