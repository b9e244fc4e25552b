package commands

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/goblinsan/gh-issues/pkg/types"
	"github.com/spf13/cobra"
)

// maxTitleLength is the longest issue title GitHub accepts.
const maxTitleLength = 256

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringP("file", "f", "", "The issue file to validate")
	validateCmd.MarkFlagRequired("file")
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate an issue file without creating anything",
	Long:  `Validate an issue YAML file for correctness. Checks the title and that the milestone is a positive number or a plain title.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filePath, _ := cmd.Flags().GetString("file")

		submit, err := loadSubmit(filePath)
		if err != nil {
			return err
		}

		errs := validateSubmit(submit)
		if len(errs) > 0 {
			stderr := cmd.ErrOrStderr()
			fmt.Fprintf(stderr, "Validation failed with %d error(s):\n", len(errs))
			for i, e := range errs {
				fmt.Fprintf(stderr, "  %d. %s\n", i+1, e)
			}
			return fmt.Errorf("validation failed with %d error(s)", len(errs))
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Issue is valid.")
		return nil
	},
}

func validateSubmit(submit types.IssueSubmit) []string {
	var errs []string

	title := strings.TrimSpace(submit.Title)
	switch {
	case title == "":
		errs = append(errs, "title is required")
	case utf8.RuneCountInString(title) > maxTitleLength:
		errs = append(errs, fmt.Sprintf("title is longer than %d characters", maxTitleLength))
	}

	milestone := strings.TrimSpace(submit.Milestone)
	if milestone == "" {
		return errs
	}
	if n, err := strconv.Atoi(milestone); err == nil {
		if n <= 0 {
			errs = append(errs, fmt.Sprintf("milestone %d must be a positive number", n))
		}
		return errs
	}
	if strings.IndexFunc(milestone, unicode.IsControl) >= 0 {
		errs = append(errs, fmt.Sprintf("milestone %q contains control characters", milestone))
	}

	return errs
}
