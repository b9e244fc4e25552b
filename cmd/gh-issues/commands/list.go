package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().String("state", "", "only list issues in this state (open, closed or all)")
	listCmd.Flags().StringP("output", "o", formatTable, "output format (table, json or yaml)")
	viper.BindPFlag("state", listCmd.Flags().Lookup("state"))
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the newest issues of the repository",
	Long:  `List the ten most recently opened issues of the selected repository, newest first.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("output")
		if err := checkFormat(format); err != nil {
			return err
		}

		svc, err := issueService()
		if err != nil {
			return err
		}

		issues, err := svc.FetchList(cmd.Context())
		if err != nil {
			return err
		}
		return writeIssues(cmd.OutOrStdout(), format, issues)
	},
}
