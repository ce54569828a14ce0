package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"becoconfig/internal/generate"
	"becoconfig/internal/logging"
	"becoconfig/internal/watch"
)

// watchCmd regenerates one variant whenever its services file changes
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate a variant when its services file changes",
	Long: `Runs generate once, then watches the project root and every candidate
directory of the variant. Creating, editing or removing a services file in
any of them triggers a new run after the debounce interval (watch.debounce
in beco.yaml). Stop with Ctrl-C.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&genVariant, "variant", "", "Variant name, e.g. freeDebug or free/debug (required)")
	watchCmd.Flags().StringVarP(&genOutput, "out", "o", "", "Output directory relative to the project root, replaced entirely (required)")
	watchCmd.Flags().StringVar(&genPackageName, "package-name", "", "Application package name")
	watchCmd.Flags().StringVar(&genPackageNameFile, "package-name-file", "", "File holding the application package name")
	watchCmd.Flags().StringVar(&genSearchOrder, "search-order", "", "Candidate order: shallow-first or deep-first")
	watchCmd.MarkFlagRequired("variant")
	watchCmd.MarkFlagRequired("out")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if genVariant == "" {
		return errors.New("--variant is required")
	}
	c := withSearchOrder(currentConfig(), genSearchOrder)
	gen, err := generate.New(c, logger)
	if err != nil {
		return err
	}
	req := newRequest(c, genVariant, resolvePath(genOutput))
	log := logger.Get(logging.CategoryWatch)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	regenerate := func(ctx context.Context) error {
		res, err := gen.Run(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s\n", res.Variant, res.ConfigPath, res.OutputFile)
		return nil
	}

	// A missing or invalid file is expected while editing; keep watching.
	if err := regenerate(ctx); err != nil {
		if errors.Is(err, generate.ErrAmbiguousPackageName) {
			return err
		}
		log.Warn("initial generation failed", zap.Error(err))
	}

	w, err := watch.New(req.ProjectRoot, c.ServicesFile, gen.Candidates(req.Variant), c.GetWatchDebounce(), regenerate, log)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Stop()
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	<-ctx.Done()
	stats := w.Stats()
	log.Info("watch stopped", zap.Int("events", stats.Events), zap.Int("runs", stats.Triggers), zap.Int("errors", stats.Errors))
	return nil
}
