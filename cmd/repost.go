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
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/blacktop/xthread/internal/social"
	"github.com/spf13/cobra"
)

var (
	repostFrom    string
	repostTargets []string
	repostDigest  string
	repostDelay   time.Duration
)

func newRepostCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repost <post-id>",
		Short: "Fan a repost out to secondary accounts",
		Long: "repost reshares a published post from each target account in turn. The post " +
			"id is the platform's primary identifier (tweet id, AT URI, status id); the " +
			"content digest is resolved automatically when a platform needs one.",
		Args: cobra.ExactArgs(1),
		RunE: runRepost,
		Example: `  xthread repost 1893... --from x-main --to x-us --to x-uk
  xthread repost at://did:plc:abc/app.bsky.feed.post/xyz --from bluesky-main --to bluesky-us`,
	}

	cmd.Flags().StringVar(&repostFrom, "from", "", "Account that published the original post")
	cmd.Flags().StringSliceVar(&repostTargets, "to", nil, "Target accounts that should repost")
	cmd.Flags().StringVar(&repostDigest, "digest", "", "Content digest of the post, if already known")
	cmd.Flags().DurationVar(&repostDelay, "delay", 0, "Delay between target accounts (default from config)")
	cmd.Flags().SortFlags = false

	return cmd
}

func runRepost(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if repostFrom == "" {
		return errors.New("--from is required")
	}
	if len(repostTargets) == 0 {
		return errors.New("at least one --to target is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	registry := buildRegistry(ctx, cfg)

	ref := social.PostReference{
		ID:     args[0],
		Digest: repostDigest,
	}
	// The source account only tags the results; it does not need to be
	// configured here for the fan-out to proceed.
	if source, err := registry.Resolve(repostFrom); err == nil {
		ref.Platform = source.Platform
	}

	opts := []social.OrchestratorOption{social.WithRepostDelay(cfg.RepostDelay)}
	if cmd.Flags().Changed("delay") {
		opts = append(opts, social.WithRepostDelay(repostDelay))
	}
	orchestrator := social.NewOrchestrator(registry, opts...)

	results := orchestrator.Repost(ctx, ref, repostFrom, repostTargets)

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	failed := 0
	for _, name := range names {
		outcome := results[name]
		if outcome.Success {
			fmt.Fprintf(out, "reposted from %s: %s\n", name, outcome.Reference.ID)
		} else {
			failed++
			fmt.Fprintf(out, "repost failed for %s: %v\n", name, outcome.Err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d repost(s) failed", failed, len(results))
	}
	return nil
}
