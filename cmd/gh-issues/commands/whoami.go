package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Display information about the authenticated GitHub user",
	Long:  `Display information about the authenticated GitHub user using the provided token.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetString("token") == "" {
			return fmt.Errorf("GitHub token is required. Set it via --token flag, GH_ISSUES_TOKEN environment variable, or config file")
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		user, err := client.GetAuthenticatedUser(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get authenticated user: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Logged in as: %s\n", user.GetLogin())
		if user.GetName() != "" {
			fmt.Fprintf(out, "Name: %s\n", user.GetName())
		}
		if user.GetEmail() != "" {
			fmt.Fprintf(out, "Email: %s\n", user.GetEmail())
		}

		return nil
	},
}
