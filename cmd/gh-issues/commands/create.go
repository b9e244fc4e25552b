package commands

import (
	"fmt"
	"os"

	"github.com/goblinsan/gh-issues/pkg/types"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().StringP("file", "f", "", "YAML file with title, body and milestone")
	createCmd.Flags().StringP("title", "t", "", "issue title")
	createCmd.Flags().StringP("body", "b", "", "issue body")
	createCmd.Flags().StringP("milestone", "m", "", "milestone number or title")
	createCmd.Flags().Bool("dry-run", false, "Preview the issue without creating it")
	createCmd.Flags().StringP("output", "o", formatTable, "output format (table, json or yaml)")
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an issue in the repository",
	Long: `Create an issue from flags or from a YAML file. Flags override values
read from the file. The milestone may be a number or a milestone title. Open
milestones are matched before closed ones.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("output")
		if err := checkFormat(format); err != nil {
			return err
		}

		submit, err := submitFromFlags(cmd.Flags())
		if err != nil {
			return err
		}

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		if dryRun {
			r, err := newSelector().Selected(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[dry-run] Would create issue in %s:\n", r)
			return writeYAML(cmd.OutOrStdout(), submit)
		}

		svc, err := issueService()
		if err != nil {
			return err
		}

		issue, err := svc.Create(cmd.Context(), submit)
		if err != nil {
			return err
		}
		if issue == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Issue submitted.")
			return nil
		}
		return writeDetail(cmd.OutOrStdout(), format, issue)
	},
}

// submitFromFlags reads the --file submission, if any, and lays explicitly
// set flags over it.
func submitFromFlags(flags *pflag.FlagSet) (types.IssueSubmit, error) {
	var submit types.IssueSubmit

	if path, _ := flags.GetString("file"); path != "" {
		var err error
		submit, err = loadSubmit(path)
		if err != nil {
			return types.IssueSubmit{}, err
		}
	}

	if flags.Changed("title") {
		submit.Title, _ = flags.GetString("title")
	}
	if flags.Changed("body") {
		submit.Body, _ = flags.GetString("body")
	}
	if flags.Changed("milestone") {
		submit.Milestone, _ = flags.GetString("milestone")
	}
	return submit, nil
}

func loadSubmit(path string) (types.IssueSubmit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.IssueSubmit{}, fmt.Errorf("failed to read file: %w", err)
	}

	var submit types.IssueSubmit
	if err := yaml.Unmarshal(data, &submit); err != nil {
		return types.IssueSubmit{}, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}
	return submit, nil
}
