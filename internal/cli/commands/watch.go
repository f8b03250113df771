package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/NiHoel/cirspecte-site/internal/loader"
	"github.com/NiHoel/cirspecte-site/internal/notifier"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "watch <tour>",
		Short: "Reload a tour whenever one of its documents changes",
		Long: `Load a tour and keep watching every document it was loaded from. Each
change reloads the whole tour and prints a one-line summary. With --save
every reload is also stored in the state database.

Documents referenced only after a reload are picked up on the next start.`,
		Example: `  cirspecte watch tours/2019.yaml
  cirspecte watch tours/2019.yaml --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runWatch(ctx, cmdCtx, args[0], save)
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Save a snapshot after every reload")

	return cmd
}

func runWatch(ctx context.Context, cmdCtx *CommandContext, path string, save bool) error {
	r := cmdCtx.Renderer
	eng := cmdCtx.Engine

	res, err := loadTour(ctx, cmdCtx, path)
	if err != nil {
		return err
	}
	report := func(res loader.Result) {
		r.Printf("%s loaded %d entities from %d documents (%d skipped)\n",
			r.Muted("•"), res.Created, len(res.Documents), res.Failed)
		if !save {
			return
		}
		if id, err := eng.Save(ctx); err != nil {
			r.Error(err.Error())
		} else {
			r.Printf("%s saved snapshot %s\n", r.Muted("•"), r.ID(id))
		}
	}
	report(res)

	// The engine is single-threaded: the watcher's timer only signals, and
	// reloads happen on the loop below.
	changes := notifier.New[struct{}]()
	sub := changes.Subscribe()
	defer changes.Unsubscribe(sub)

	watcher := loader.NewWatcher(res.Documents, func() { changes.Broadcast(struct{}{}) }, cmdCtx.Logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return watcher.Watch(gctx)
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-sub:
				res, err := eng.Reload(gctx, path)
				if err != nil {
					r.Error(fmt.Sprintf("reload failed: %v", err))
					continue
				}
				report(res)
			}
		}
	})

	r.Println(r.Muted(fmt.Sprintf("watching %d documents, press Ctrl+C to stop", len(res.Documents))))
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
