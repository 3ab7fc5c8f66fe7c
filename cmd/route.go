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
	"fmt"
	"strings"

	"github.com/blacktop/xthread/internal/social"
	"github.com/spf13/cobra"
)

var (
	routeTags     []string
	routeCategory string
)

func newRouteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "route <text>",
		Short: "Show which account content would route to",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRoute,
		Example: `  xthread route "new analysis of UK tax policy"
  xthread route "grant announcement" --category grant`,
	}

	cmd.Flags().StringSliceVarP(&routeTags, "tag", "t", nil, "Content tags")
	cmd.Flags().StringVarP(&routeCategory, "category", "c", "", "Content category")
	cmd.Flags().SortFlags = false

	return cmd
}

func runRoute(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	account := social.NewRouter(cfg.Routing).Route(strings.Join(args, " "), routeTags, routeCategory)
	fmt.Fprintln(cmd.OutOrStdout(), account)
	return nil
}
