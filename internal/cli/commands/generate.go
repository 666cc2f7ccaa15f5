package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/protoforge/protoforge/internal/cli/config"
	"github.com/protoforge/protoforge/internal/cli/ui"
	"github.com/protoforge/protoforge/internal/compiler"
	"github.com/protoforge/protoforge/internal/compiler/descriptor"
	compilererrors "github.com/protoforge/protoforge/internal/compiler/errors"
	"github.com/protoforge/protoforge/internal/watch"
	"github.com/protoforge/protoforge/internal/writer"
)

var (
	generateJSON    bool
	generateVerbose bool
	generateOutput  string
	generateConfig  string
	generateWatch   bool
)

// NewGenerateCommand creates the generate command
func NewGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <descriptor-set>",
		Short: "Generate Go declarations from a binary descriptor set",
		Long: `Compile a serialized descriptor set (produced by an IDL compiler with
--descriptor_set_out) into Go source declarations, one package per
schema package.

The generation pipeline:
  1. Indexing - catalogue every declared type by fully-qualified name
  2. Resolution - bind every type reference using nested-scope rules
  3. Cycle breaking - mark fields that need pointer indirection
  4. Type mapping - produce Go type expressions under configured overrides
  5. Emission - group declarations by package and write formatted files`,
		Example: `  # Generate with default settings
  protoforge generate build/schema.pb

  # Generate into a custom directory with verbose output
  protoforge generate build/schema.pb -o gen -v

  # Regenerate whenever the descriptor set changes
  protoforge generate build/schema.pb --watch

  # Output errors in JSON format (useful for tooling)
  protoforge generate build/schema.pb --json`,
		Args: cobra.ExactArgs(1),
		RunE: runGenerate,
	}

	cmd.Flags().BoolVar(&generateJSON, "json", false, "Output errors in JSON format")
	cmd.Flags().BoolVarP(&generateVerbose, "verbose", "v", false, "Show detailed generation output")
	cmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Output directory (default: gen)")
	cmd.Flags().StringVarP(&generateConfig, "config", "c", "", "Config file path (default: protoforge.yml)")
	cmd.Flags().BoolVar(&generateWatch, "watch", false, "Regenerate when the descriptor set changes")

	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	descriptorPath := args[0]

	if err := generateOnce(descriptorPath); err != nil {
		return err
	}
	if !generateWatch {
		return nil
	}

	infoColor := color.New(color.FgCyan)
	infoColor.Printf("Watching %s for changes...\n", descriptorPath)
	return watch.Run(descriptorPath, func() {
		if err := generateOnce(descriptorPath); err != nil {
			reportError(err)
		}
	})
}

func generateOnce(descriptorPath string) error {
	startTime := time.Now()

	successColor := color.New(color.FgGreen, color.Bold)
	infoColor := color.New(color.FgCyan)

	cfg, err := config.Load(generateConfig)
	if err != nil {
		return err
	}

	outputDir := generateOutput
	if outputDir == "" {
		outputDir = cfg.Generate.Output
	}

	data, err := os.ReadFile(descriptorPath)
	if err != nil {
		return fmt.Errorf("failed to read descriptor set: %w", err)
	}

	set, err := descriptor.Load(data)
	if err != nil {
		return err
	}
	if generateVerbose {
		infoColor.Printf("Loaded %d schema file(s) from %s\n", len(set.Files), descriptorPath)
	}

	opts := cfg.Options()
	if generateVerbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer logger.Sync()
		opts.Logger = logger
	}

	units, err := compiler.Compile(set, opts)
	if err != nil {
		reportError(err)
		return fmt.Errorf("generation failed")
	}

	written, err := writer.Write(outputDir, units)
	if err != nil {
		return err
	}
	if generateVerbose {
		for _, path := range written {
			infoColor.Printf("  wrote %s\n", path)
		}
	}

	successColor.Printf("✓ Generated %d package(s) in %s\n", len(units), time.Since(startTime).Round(time.Millisecond))
	return nil
}

// reportError renders a compile error for terminal or JSON consumption.
func reportError(err error) {
	var ce *compilererrors.CompileError
	if !errors.As(err, &ce) {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if generateJSON {
		if out, jerr := ce.ToJSON(); jerr == nil {
			fmt.Fprintln(os.Stderr, out)
			return
		}
	}
	fmt.Fprint(os.Stderr, ui.FormatCompileError(ce))
}
