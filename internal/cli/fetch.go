package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/mosaic/pkg/api"
	"github.com/matzehuels/mosaic/pkg/errors"
	"github.com/matzehuels/mosaic/pkg/feed"
)

// fetchOpts holds the flags of the fetch command.
type fetchOpts struct {
	pages       int
	limit       int
	concurrency int
	refresh     bool
	noCache     bool
	json        bool
}

// fetchResult is one feed after loading, as written by --json.
type fetchResult struct {
	Key   string      `json:"key"`
	State string      `json:"state"`
	Next  feed.Cursor `json:"next"`
	Pages int         `json:"pages"`
	Items []api.Item  `json:"items"`
	Error string      `json:"error,omitempty"`

	err error
}

// fetchCommand creates the fetch command.
func (c *CLI) fetchCommand() *cobra.Command {
	opts := fetchOpts{pages: defaultPages, concurrency: 4}

	cmd := &cobra.Command{
		Use:   "fetch <resource> [id...]",
		Short: "Load pages of a resource",
		Long: `Load pages of a resource and print its items.

Resources scoped to an owner (events, gallery, achievements, ...) take one
or more ids; each id is fetched as a separate feed, concurrently.`,
		Example: `  mosaic fetch communities --pages 3
  mosaic fetch events 12 15 --json
  mosaic fetch gallery 12 --refresh`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeResources,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFetch(cmd.Context(), cmd.OutOrStdout(), args[0], args[1:], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.pages, "pages", "p", opts.pages, "number of pages to load per feed")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "items per page (default from config)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", opts.concurrency, "feeds loaded in parallel")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached pages")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the response cache")
	cmd.Flags().BoolVar(&opts.json, "json", false, "write one JSON object per feed")

	return cmd
}

func (c *CLI) runFetch(ctx context.Context, w io.Writer, name string, ids []string, opts fetchOpts) error {
	res, err := api.Lookup(name)
	if err != nil {
		return err
	}
	if opts.pages < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "--pages must be at least 1")
	}
	if len(ids) == 0 {
		if res.NeedsID() {
			return errors.New(errors.ErrCodeInvalidInput, "resource %s needs at least one id", res.Name)
		}
		ids = []string{""}
	}

	if opts.limit > 0 {
		cfg, err := c.config()
		if err != nil {
			return err
		}
		cfg.API.PageLimit = opts.limit
		if err := cfg.Validate(); err != nil {
			return err
		}
		c.cfg = &cfg
	}

	client, cc, err := c.newClient(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer cc.Close()

	prog := newProgress(c.Logger)
	var spinner *Spinner
	if !opts.json {
		spinner = newSpinnerWithContext(ctx, fmt.Sprintf("Fetching %s...", res.Name))
		spinner.Start()
	}

	onDone := func(done, total int) {}
	if spinner != nil && len(ids) > 1 {
		onDone = func(done, total int) {
			spinner.Update("Fetching %s (%d/%d feeds)...", res.Name, done, total)
		}
	}
	results, err := loadFeeds(ctx, res, client, ids, opts, onDone, feed.WithLogger(c.Logger))
	if spinner != nil {
		if err != nil {
			spinner.StopWithError("Fetch failed")
		} else {
			spinner.Stop()
		}
	}
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	prog.done(fmt.Sprintf("Fetched %d %s feed(s)", len(results), res.Name))

	var failed error
	failures := 0
	for _, r := range results {
		if r.err != nil && len(r.Items) == 0 {
			failed = r.err
			failures++
		}
	}
	allFailed := failures == len(results)

	if opts.json {
		if err := writeResultsJSON(w, results); err != nil {
			return err
		}
		if allFailed {
			return errors.FromFetch(failed)
		}
		return nil
	}

	for _, r := range results {
		if r.err != nil && len(r.Items) == 0 {
			printError("%s: %s", r.Key, errors.UserMessage(errors.FromFetch(r.err)))
			continue
		}
		printSuccess("%s", StyleTitle.Render(r.Key))
		fmt.Fprintln(w, itemTable(r.Items))
		printStats(len(r.Items), r.Pages, r.State)
		if r.err != nil {
			printWarning("stopped early: %s", errors.UserMessage(errors.FromFetch(r.err)))
		}
	}
	if allFailed {
		return errors.FromFetch(failed)
	}
	if !res.Media {
		return nil
	}
	printNewline()
	printNextStep("Browse as columns", fmt.Sprintf("mosaic browse %s %s", res.Name, ids[0]))
	return nil
}

// loadFeeds loads opts.pages pages of every id concurrently and calls onDone
// as each feed finishes. Per-feed fetch failures are recorded on the result;
// only setup errors abort the group.
func loadFeeds(ctx context.Context, res api.Resource, client *api.Client, ids []string, opts fetchOpts, onDone func(done, total int), feedOpts ...feed.Option) ([]fetchResult, error) {
	results := make([]fetchResult, len(ids))
	var finished atomic.Int32

	ctrls := make([]*feed.Controller[api.Item], len(ids))
	for i, id := range ids {
		ctrl, err := res.Feed(client, id, api.PageOptions{Refresh: opts.refresh}, feedOpts...)
		if err != nil {
			return nil, err
		}
		ctrls[i] = ctrl
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.concurrency, 1))
	for i, ctrl := range ctrls {
		g.Go(func() error {
			loadErr := ctrl.LoadPages(ctx, opts.pages)
			results[i] = fetchResult{
				Key:   ctrl.Key(),
				State: ctrl.State().String(),
				Next:  ctrl.Cursor(),
				Pages: len(ctrl.Pages()),
				Items: ctrl.Items(),
				err:   loadErr,
			}
			if loadErr != nil {
				results[i].Error = loadErr.Error()
			}
			onDone(int(finished.Add(1)), len(ids))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func writeResultsJSON(w io.Writer, results []fetchResult) error {
	enc := json.NewEncoder(w)
	for _, r := range results {
		if r.Items == nil {
			r.Items = []api.Item{}
		}
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

// itemTable renders items as an ID/label table.
func itemTable(items []api.Item) string {
	rows := make([][]string, len(items))
	for i, it := range items {
		rows[i] = []string{it.ItemID(), it.Label()}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Label").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorCyan)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		}).
		Render()
}

// stdoutIsTerminal reports whether stdout is attached to a character device.
func stdoutIsTerminal() bool {
	fi, err := os.Stdout.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
