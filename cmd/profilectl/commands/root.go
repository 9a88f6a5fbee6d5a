package commands

import (
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oksasatya/admin-user-profile/config"
	"github.com/oksasatya/admin-user-profile/pkg/client"
)

type rootOptions struct {
	baseURL string
	token   string
	verbose bool

	api    *client.Client
	logger *logrus.Logger
}

func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the profilectl command tree.
func NewRootCmd() *cobra.Command {
	_ = godotenv.Load()
	cfg := config.Load()
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "profilectl",
		Short:        "Inspect and edit user profiles through the dashboard API",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.logger = logrus.New()
			opts.logger.SetOutput(cmd.ErrOrStderr())
			if !opts.verbose {
				opts.logger.SetOutput(io.Discard)
			}
			opts.api = client.New(opts.baseURL, client.WithToken(opts.token))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.baseURL, "url", cfg.ProfileAPIURL, "dashboard base URL")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("PROFILE_API_TOKEN"), "admin access token")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log requests and failures to stderr")

	root.AddCommand(getCmd(opts), rolesCmd(opts), updateCmd(opts))
	return root
}
