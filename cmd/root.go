/*
Copyright © 2025 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"

	"github.com/blacktop/xthread/internal/logutil"
	"github.com/blacktop/xthread/internal/social"
	"github.com/blacktop/xthread/internal/social/platforms"
	"github.com/spf13/cobra"
)

var (
	verboseFlag bool
	envFileFlag string
	routingFlag string
)

// Execute runs the root command.
func Execute() error {
	return newRootCommand().Execute()
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xthread",
		Short: "Post threads and fan out reposts across social accounts",
		Long: "xthread publishes ordered post sequences as linked threads on X, Bluesky, " +
			"Mastodon, and LinkedIn accounts, routes content to the right account, and " +
			"fans reposts out to secondary accounts.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logutil.SetVerbose(verboseFlag)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "V", false, "Enable verbose logging")
	cmd.PersistentFlags().StringVar(&envFileFlag, "env-file", "", "Path to a dotenv file with credentials")
	cmd.PersistentFlags().StringVar(&routingFlag, "routing", "", "Path to a YAML routing-rule file")

	cmd.AddCommand(newPostCommand())
	cmd.AddCommand(newRepostCommand())
	cmd.AddCommand(newRouteCommand())
	cmd.AddCommand(newAccountsCommand())
	cmd.AddCommand(newCompletionCommand())

	return cmd
}

// loadConfig builds the startup configuration, honoring the persistent
// --env-file and --routing flags.
func loadConfig() (*social.Config, error) {
	cfg, err := social.LoadConfig(envFileFlag)
	if err != nil {
		return nil, err
	}
	if routingFlag != "" {
		routing, err := social.LoadRouting(routingFlag)
		if err != nil {
			return nil, err
		}
		if routing.Default == "" {
			routing.Default = cfg.DefaultAccount
		}
		cfg.Routing = routing
	}
	return cfg, nil
}

func buildRegistry(ctx context.Context, cfg *social.Config) *social.Registry {
	return social.BuildRegistry(ctx, cfg, platforms.New)
}
