package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/goblinsan/gh-issues/pkg/dialog"
	"github.com/goblinsan/gh-issues/pkg/github"
	"github.com/goblinsan/gh-issues/pkg/issues"
	"github.com/goblinsan/gh-issues/pkg/logger"
	"github.com/goblinsan/gh-issues/pkg/repo"
	"github.com/goblinsan/gh-issues/pkg/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "gh-issues",
		Short: "View and create GitHub issues of a repository",
		Long: `gh-issues lists, shows and creates GitHub issues of the selected
repository. The repository comes from --repo, the config file, or the
remote of the git clone you are standing in.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			// Default action when no subcommand is specified
			cmd.Help()
		},
	}
)

// issueAPI is what the commands need from the issue service.
type issueAPI interface {
	FetchList(ctx context.Context) ([]types.IssueInfo, error)
	FetchDetail(ctx context.Context, number int) (*types.IssueDetailInfo, error)
	Create(ctx context.Context, submit types.IssueSubmit) (*types.IssueDetailInfo, error)
}

// issueService builds the issue service once per process. Its dialogs are
// drawn on stderr.
var issueService = sync.OnceValues(func() (issueAPI, error) {
	return buildIssueService(dialog.NewTerminal(os.Stderr))
})

func buildIssueService(dlg dialog.Dialog) (issueAPI, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}
	return issues.NewService(client, newSelector(), dlg, issues.Options{
		State: viper.GetString("state"),
	}), nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.gh-issues.yaml)")
	flags.String("token", "", "GitHub personal access token")
	flags.StringP("repo", "R", "", "repository in owner/name form (default: detected from the git remote)")
	flags.String("remote", "origin", "git remote used to detect the repository")
	flags.String("api-url", "", "REST API base url of a GitHub Enterprise or compatible host")
	flags.String("graphql-url", "", "GraphQL endpoint of a GitHub Enterprise or compatible host")
	flags.String("encoding", "form", "body encoding for new issues (form or json)")
	flags.Bool("debug", false, "debug logging")
	flags.BoolP("verbose", "v", false, "verbose logging")

	// Bind flags to viper
	viper.BindPFlag("token", flags.Lookup("token"))
	viper.BindPFlag("repository", flags.Lookup("repo"))
	viper.BindPFlag("remote", flags.Lookup("remote"))
	viper.BindPFlag("api_url", flags.Lookup("api-url"))
	viper.BindPFlag("graphql_url", flags.Lookup("graphql-url"))
	viper.BindPFlag("encoding", flags.Lookup("encoding"))
	viper.BindPFlag("debug", flags.Lookup("debug"))
	viper.BindPFlag("verbose", flags.Lookup("verbose"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	home := ""
	if cfgFile == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}
	}

	err := readConfig(viper.GetViper(), cfgFile, home)
	if err != nil && cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger.Initialize(viper.GetBool("debug"), viper.GetBool("verbose"))
	ctx := context.Background()
	switch {
	case err != nil:
		logger.Warn(ctx, "ignoring config file", "error", err)
	default:
		if v := viper.ConfigFileUsed(); v != "" {
			logger.Info(ctx, "using config file", "path", v)
		}
	}
}

// readConfig points v at the config file and the GH_ISSUES_* environment and
// loads the file. A missing $HOME/.gh-issues.yaml is not an error; a missing
// or malformed explicit file is.
func readConfig(v *viper.Viper, file, home string) error {
	if file != "" {
		// Use config file from the flag.
		v.SetConfigFile(file)
	} else {
		// Search config in home directory with name ".gh-issues" (without extension).
		v.AddConfigPath(home)
		v.SetConfigType("yaml")
		v.SetConfigName(".gh-issues")
	}

	// Read in environment variables that match
	v.SetEnvPrefix("GH_ISSUES")
	v.AutomaticEnv()

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if file == "" && errors.As(err, &notFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", configName(v, file), err)
	}
	return nil
}

func configName(v *viper.Viper, file string) string {
	if file != "" {
		return file
	}
	return v.ConfigFileUsed()
}

func newClient() (*github.Client, error) {
	enc, err := github.ParseEncoding(viper.GetString("encoding"))
	if err != nil {
		return nil, err
	}
	return github.NewClient(github.Config{
		Token:      viper.GetString("token"),
		APIURL:     viper.GetString("api_url"),
		GraphQLURL: viper.GetString("graphql_url"),
		Encoding:   enc,
	})
}

func newSelector() repo.Selector {
	return repo.Chain{
		repo.Static{Repository: viper.GetString("repository")},
		repo.GitRemote{Remote: viper.GetString("remote")},
	}
}
