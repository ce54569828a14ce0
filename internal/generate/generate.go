// Package generate runs the services-to-resources pipeline for a variant:
// resolve candidates, locate the services file, validate it, replace the
// output directory and write the values file.
//
// A run is sequential and stops at the first failure. Two runs must not
// share an output directory at the same time; RunAll rejects that.
package generate

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"becoconfig/internal/config"
	"becoconfig/internal/locate"
	"becoconfig/internal/logging"
	"becoconfig/internal/outdir"
	"becoconfig/internal/resources"
	"becoconfig/internal/services"
	"becoconfig/internal/variant"
)

// ErrAmbiguousPackageName is returned when neither package name input is set.
var ErrAmbiguousPackageName = errors.New("one of package name or package name file is required")

// Request holds the inputs of one run.
type Request struct {
	// Variant is the variant identifier, e.g. "freeDebug" or "free/debug".
	Variant string

	// ProjectRoot is the directory candidates are resolved against.
	ProjectRoot string

	// OutputDir is replaced entirely by the run.
	OutputDir string

	// PackageName and PackageNameFile are alternative package name sources.
	// At least one must be set; only presence is checked.
	PackageName     string
	PackageNameFile string

	// Atomic overrides the configured atomic setting when non-nil.
	Atomic *bool
}

// Result describes a successful run.
type Result struct {
	RunID      string
	Variant    string
	Candidates []string
	ConfigPath string
	Searched   []string
	OutputFile string
	Fields     services.Fields
}

// Generator runs requests against one tool configuration.
type Generator struct {
	cfg    *config.Config
	order  variant.Order
	logger *logging.Logger

	// newID is swapped in tests.
	newID func() string
}

// New validates cfg and returns a Generator. A nil logger discards output.
func New(cfg *config.Config, logger *logging.Logger) (*Generator, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	order, err := cfg.Order()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Generator{
		cfg:    cfg,
		order:  order,
		logger: logger,
		newID:  func() string { return uuid.New().String() },
	}, nil
}

// Config returns the generator's configuration.
func (g *Generator) Config() *config.Config {
	return g.cfg
}

// Candidates returns the resolved candidate directories for v using the
// configured search order.
func (g *Generator) Candidates(v string) []string {
	return variant.ResolveWithOrder(v, g.order)
}

// Run executes one request.
func (g *Generator) Run(ctx context.Context, req Request) (*Result, error) {
	runID := g.newID()
	log := g.logger.Base().With(zap.String("run", runID), zap.String("variant", req.Variant))

	if req.PackageName == "" && req.PackageNameFile == "" {
		return nil, fmt.Errorf("%w: package name: %q, package name file: %q",
			ErrAmbiguousPackageName, req.PackageName, req.PackageNameFile)
	}
	if req.OutputDir == "" {
		return nil, errors.New("output directory is required")
	}

	res := &Result{RunID: runID, Variant: req.Variant}

	res.Candidates = g.Candidates(req.Variant)
	g.logger.Get(logging.CategoryResolve).Debug("resolved candidates",
		zap.String("run", runID), zap.Strings("candidates", res.Candidates))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	found, err := locate.Locate(res.Candidates, req.ProjectRoot, g.cfg.ServicesFile)
	res.Searched = found.Searched
	if err != nil {
		return nil, err
	}
	res.ConfigPath = found.Path
	g.logger.Get(logging.CategoryLocate).Debug("located services file",
		zap.String("run", runID), zap.String("path", found.Path),
		zap.Bool("fallback", found.Fallback), zap.Int("probed", len(found.Searched)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.logger.Get(logging.CategoryLoad).Info("Parsing json file: "+found.Path, zap.String("run", runID))
	doc, err := services.Load(found.Path)
	if err != nil {
		return nil, err
	}
	fields, err := services.Extract(doc)
	if err != nil {
		return nil, err
	}
	res.Fields = fields

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := g.emit(req, runID, fields.Resources())
	if err != nil {
		return nil, err
	}
	res.OutputFile = out

	log.Info("generated values file", zap.String("output", out), zap.String("source", found.Path))
	return res, nil
}

// emit replaces the output directory and writes the values file, staging
// the tree first when atomic output is enabled.
func (g *Generator) emit(req Request, runID string, set *resources.Set) (string, error) {
	outLog := g.logger.Get(logging.CategoryOutdir).With(zap.String("run", runID))
	emitLog := g.logger.Get(logging.CategoryEmit).With(zap.String("run", runID))

	atomic := g.cfg.Atomic
	if req.Atomic != nil {
		atomic = *req.Atomic
	}

	if !atomic {
		outLog.Debug("resetting output directory", zap.String("dir", req.OutputDir))
		if err := outdir.Reset(req.OutputDir); err != nil {
			return "", err
		}
		path, err := resources.Write(req.OutputDir, g.cfg.ValuesFile, set)
		if err != nil {
			return "", err
		}
		emitLog.Debug("wrote values file", zap.String("path", path), zap.Int("entries", set.Len()))
		return path, nil
	}

	stage, err := outdir.Stage(req.OutputDir, runID)
	if err != nil {
		return "", err
	}
	outLog.Debug("staging output directory", zap.String("staging", stage.Dir), zap.String("target", stage.Target()))

	if _, err := resources.Write(stage.Dir, g.cfg.ValuesFile, set); err != nil {
		if aerr := stage.Abort(); aerr != nil {
			outLog.Warn("failed to discard staging directory", zap.Error(aerr))
		}
		return "", err
	}
	if err := stage.Commit(); err != nil {
		var cerr *outdir.CleanupError
		if errors.As(err, &cerr) {
			outLog.Warn("previous output left behind", zap.String("path", cerr.Path), zap.Error(cerr.Err))
			return filepath.Join(req.OutputDir, resources.ValuesDir, g.cfg.ValuesFile), nil
		}
		if aerr := stage.Abort(); aerr != nil {
			outLog.Warn("failed to discard staging directory", zap.Error(aerr))
		}
		return "", err
	}

	path := filepath.Join(req.OutputDir, resources.ValuesDir, g.cfg.ValuesFile)
	emitLog.Debug("committed values file", zap.String("path", path), zap.Int("entries", set.Len()))
	return path, nil
}
