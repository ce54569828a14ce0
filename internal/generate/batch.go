package generate

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrSharedOutputDir is returned by RunAll when two requests target the
// same output directory.
var ErrSharedOutputDir = errors.New("requests share an output directory")

// RunAll runs independent requests concurrently, at most max_parallel at a
// time. The first failure cancels requests that have not started a step
// yet. Results are returned in request order.
func (g *Generator) RunAll(ctx context.Context, reqs []Request) ([]*Result, error) {
	owners := make(map[string]string, len(reqs))
	for _, req := range reqs {
		key := outputKey(req.OutputDir)
		if prev, ok := owners[key]; ok {
			return nil, fmt.Errorf("%w: %s is used by %s and %s", ErrSharedOutputDir, req.OutputDir, prev, req.Variant)
		}
		owners[key] = req.Variant
	}

	results := make([]*Result, len(reqs))
	eg, egCtx := errgroup.WithContext(ctx)
	if g.cfg.MaxParallel > 0 {
		eg.SetLimit(g.cfg.MaxParallel)
	}

	for i, req := range reqs {
		eg.Go(func() error {
			res, err := g.Run(egCtx, req)
			if err != nil {
				return fmt.Errorf("variant %s: %w", req.Variant, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	g.logger.Base().Info("generated all variants", zap.Int("count", len(reqs)))
	return results, nil
}

func outputKey(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return filepath.Clean(dir)
}
