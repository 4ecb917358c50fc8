package cmd

import (
	"github.com/dnitsch/aws-sso-portal/internal/cmdutils"
	"github.com/spf13/cobra"
)

var (
	listAll     bool
	accountsCmd = &cobra.Command{
		Use:   "accounts <flags>",
		Short: "Lists the accounts and roles assigned to the signed in user",
		RunE:  listAccounts,
	}
)

func init() {
	accountsCmd.Flags().BoolVarP(&listAll, "all", "a", false, "Include applications that are not AWS accounts")
	RootCmd.AddCommand(accountsCmd)
}

func listAccounts(cmd *cobra.Command, args []string) error {
	client, err := cmdutils.NewPortal(cmd.Context(), conf)
	if err != nil {
		return err
	}
	return cmdutils.ListAccounts(cmd.Context(), client, listAll, cmd.OutOrStdout())
}
