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
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/blacktop/xthread/internal/social"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const defaultAltText = "Image attached via xthread"

var (
	postAccount  string
	postTags     []string
	postCategory string
	postThread   string
	postImages   []string
	postAlts     []string
	postDelay    time.Duration
	postDryRun   bool
)

func newPostCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post [text]",
		Short: "Publish a post or thread to one account",
		Long: "post publishes text as a single post, or an ordered sequence of posts as a " +
			"linked thread with --thread. The destination account is picked by the routing " +
			"rules unless --account is given. Images attach to the first post only.",
		RunE: runPost,
		Example: `  xthread post "Ship it!" --account x-main --image ./shot.png
  xthread post --thread thread.txt --tag us
  cat thread.txt | xthread post --thread -`,
	}

	cmd.Flags().StringVarP(&postAccount, "account", "a", "", "Account to post from (default: routed)")
	cmd.Flags().StringSliceVarP(&postTags, "tag", "t", nil, "Content tags for routing")
	cmd.Flags().StringVarP(&postCategory, "category", "c", "", "Content category for routing")
	cmd.Flags().StringVar(&postThread, "thread", "", "Thread file, one post per non-empty line (use - for stdin)")
	cmd.Flags().StringSliceVarP(&postImages, "image", "i", nil, "Image paths to attach to the first post")
	cmd.Flags().StringSliceVar(&postAlts, "alt-text", nil, "Alternative text per image, in order")
	cmd.Flags().DurationVar(&postDelay, "delay", 0, "Delay between thread posts (default from config)")
	cmd.Flags().BoolVar(&postDryRun, "dry-run", false, "Print actions without posting")
	cmd.Flags().SortFlags = false

	return cmd
}

func runPost(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	bodies, err := resolveBodies(cmd, args)
	if err != nil {
		return err
	}

	media := resolveMedia()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	account := postAccount
	if account == "" {
		account = social.NewRouter(cfg.Routing).Route(bodies[0].Text, postTags, postCategory)
	}

	if postDryRun {
		fmt.Fprintf(out, "[dry-run] would post %d post(s) to %s\n", len(bodies), account)
		for i, body := range bodies {
			fmt.Fprintf(out, "[dry-run]   %d: %q\n", i+1, body.Text)
		}
		for _, m := range media {
			fmt.Fprintf(out, "[dry-run] image: %s (alt: %q)\n", m.Path, m.Alt)
		}
		return nil
	}

	registry := buildRegistry(ctx, cfg)

	opts := []social.PublisherOption{social.WithThreadDelay(cfg.ThreadDelay)}
	if cmd.Flags().Changed("delay") {
		opts = append(opts, social.WithThreadDelay(postDelay))
	}
	publisher := social.NewPublisher(registry, opts...)

	result := publisher.PublishThread(ctx, account, bodies, media)
	for _, ref := range result.Posts {
		fmt.Fprintf(out, "posted to %s: %s\n", result.Account, ref.URL)
	}
	if !result.Success {
		if social.Interrupted(result.Err) {
			fmt.Fprintf(out, "published %d of %d post(s); retry the remaining %d\n",
				len(result.Posts), len(bodies), len(bodies)-len(result.Posts))
		}
		return result.Err
	}

	fmt.Fprintf(out, "thread complete: %s\n", result.ThreadURL)
	return nil
}

func resolveBodies(cmd *cobra.Command, args []string) ([]social.PostBody, error) {
	if postThread != "" {
		if len(args) > 0 {
			return nil, errors.New("provide the text either as an argument or with --thread, not both")
		}
		return readThread(cmd, postThread)
	}

	message := strings.TrimSpace(strings.Join(args, " "))
	if message == "" {
		data, err := readPipedStdin(cmd)
		if err != nil {
			return nil, err
		}
		message = data
	}
	if message == "" {
		return nil, errors.New("post text is required")
	}

	return []social.PostBody{{Text: message}}, nil
}

func readThread(cmd *cobra.Command, source string) ([]social.PostBody, error) {
	var reader io.Reader
	if source == "-" {
		reader = cmd.InOrStdin()
	} else {
		file, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("open thread file: %w", err)
		}
		defer file.Close()
		reader = file
	}

	var bodies []social.PostBody
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		bodies = append(bodies, social.PostBody{Text: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read thread: %w", err)
	}
	if len(bodies) == 0 {
		return nil, errors.New("thread is empty")
	}

	return bodies, nil
}

func readPipedStdin(cmd *cobra.Command) (string, error) {
	stdin := cmd.InOrStdin()
	if file, ok := stdin.(*os.File); ok {
		if term.IsTerminal(int(file.Fd())) {
			return "", nil
		}
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func resolveMedia() []social.Media {
	media := make([]social.Media, 0, len(postImages))
	for i, path := range postImages {
		alt := defaultAltText
		if i < len(postAlts) && strings.TrimSpace(postAlts[i]) != "" {
			alt = strings.TrimSpace(postAlts[i])
		}
		media = append(media, social.Media{Path: path, Alt: alt})
	}
	return media
}
