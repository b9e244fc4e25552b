package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().StringP("output", "o", formatTable, "output format (table, json or yaml)")
}

var showCmd = &cobra.Command{
	Use:   "show <number>",
	Short: "Show one issue in detail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("output")
		if err := checkFormat(format); err != nil {
			return err
		}

		number, err := parseIssueNumber(args[0])
		if err != nil {
			return err
		}

		svc, err := issueService()
		if err != nil {
			return err
		}

		detail, err := svc.FetchDetail(cmd.Context(), number)
		if err != nil {
			return err
		}
		return writeDetail(cmd.OutOrStdout(), format, detail)
	},
}

// parseIssueNumber accepts "12" and "#12".
func parseIssueNumber(s string) (int, error) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid issue number %q", s)
	}
	return n, nil
}
