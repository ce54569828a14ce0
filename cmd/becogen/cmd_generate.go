package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"becoconfig/internal/config"
	"becoconfig/internal/generate"
	"becoconfig/internal/logging"
)

var (
	genVariant         string
	genOutput          string
	genPackageName     string
	genPackageNameFile string
	genAtomic          bool
	genSearchOrder     string
)

// generateCmd runs the pipeline for one variant
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the values file for one variant",
	Long: `Resolves the candidate directories of the variant, locates the services
file, validates project_info.api_key and project_info.environment_id and
replaces the output directory with values/beco_values.xml.

Example:
  becogen generate --variant freeDebug --out build/generated/res/beco/freeDebug --package-name com.example.app`,
	RunE: runGenerate,
}

// generateAllCmd runs every variant listed in beco.yaml
var generateAllCmd = &cobra.Command{
	Use:   "generate-all",
	Short: "Generate values files for every configured variant",
	Long: `Runs generate for each entry of the variants list in beco.yaml, in parallel
up to max_parallel. Output directories are relative to the project root.`,
	Args: cobra.NoArgs,
	RunE: runGenerateAll,
}

func init() {
	generateCmd.Flags().StringVar(&genVariant, "variant", "", "Variant name, e.g. freeDebug or free/debug (required)")
	generateCmd.Flags().StringVarP(&genOutput, "out", "o", "", "Output directory relative to the project root, replaced entirely (required)")
	generateCmd.Flags().StringVar(&genPackageName, "package-name", "", "Application package name")
	generateCmd.Flags().StringVar(&genPackageNameFile, "package-name-file", "", "File holding the application package name")
	generateCmd.Flags().BoolVar(&genAtomic, "atomic", false, "Stage output in a sibling directory and swap it in")
	generateCmd.Flags().StringVar(&genSearchOrder, "search-order", "", "Candidate order: shallow-first or deep-first")
	generateCmd.MarkFlagRequired("variant")
	generateCmd.MarkFlagRequired("out")

	generateAllCmd.Flags().StringVar(&genPackageName, "package-name", "", "Application package name")
	generateAllCmd.Flags().StringVar(&genPackageNameFile, "package-name-file", "", "File holding the application package name")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if genVariant == "" {
		return errors.New("--variant is required")
	}
	c := withSearchOrder(currentConfig(), genSearchOrder)
	gen, err := generate.New(c, logger)
	if err != nil {
		return err
	}

	req := newRequest(c, genVariant, resolvePath(genOutput))
	if cmd.Flags().Changed("atomic") {
		atomic := genAtomic
		req.Atomic = &atomic
	}

	res, err := gen.Run(commandContext(cmd), req)
	if err != nil {
		return err
	}
	logger.Get(logging.CategoryCLI).Debug("generate finished", zap.String("run", res.RunID))
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s\n", res.Variant, res.ConfigPath, res.OutputFile)
	return nil
}

func runGenerateAll(cmd *cobra.Command, args []string) error {
	c := currentConfig()
	if len(c.Variants) == 0 {
		return fmt.Errorf("no variants configured in %s", resolveConfigPath())
	}
	gen, err := generate.New(c, logger)
	if err != nil {
		return err
	}

	reqs := make([]generate.Request, 0, len(c.Variants))
	for _, v := range c.Variants {
		reqs = append(reqs, newRequest(c, v.Name, resolvePath(v.Output)))
	}

	results, err := gen.RunAll(commandContext(cmd), reqs)
	if err != nil {
		return err
	}
	for _, res := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s\n", res.Variant, res.ConfigPath, res.OutputFile)
	}
	return nil
}

// newRequest builds a request, falling back to the configured package name
// when neither package name flag is set.
func newRequest(c *config.Config, name, out string) generate.Request {
	req := generate.Request{
		Variant:         name,
		ProjectRoot:     projectRoot(),
		OutputDir:       out,
		PackageName:     genPackageName,
		PackageNameFile: genPackageNameFile,
	}
	if req.PackageName == "" && req.PackageNameFile == "" {
		req.PackageName = c.PackageName
	}
	return req
}

// withSearchOrder returns a copy of c using order when it is set.
func withSearchOrder(c *config.Config, order string) *config.Config {
	if order == "" {
		return c
	}
	cp := *c
	cp.SearchOrder = order
	return &cp
}
