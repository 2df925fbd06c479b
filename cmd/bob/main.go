// Command bob is the polyglot build orchestrator's CLI entry point:
// `bob [-C dir] [-o out] [-p prefix] [-D] [-f] [-O] <instr> [args...]`.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bobsh/bob/internal/berr"
	"github.com/bobsh/bob/internal/deptree"
	"github.com/bobsh/bob/internal/logging"
	"github.com/bobsh/bob/internal/orchestrator"
	"github.com/bobsh/bob/internal/pkgformat"
	"github.com/bobsh/bob/internal/skeleton"
)

var (
	flagDir         string
	flagOut         string
	flagPrefix      string
	flagDisableDeps bool
	flagForce       bool
	flagAssertOwns  bool
	flagNoColor     bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "x %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "bob",
	Short:         "Build, install, and run polyglot projects described by build.fl",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDir, "chdir", "C", "", "project directory (default: current directory)")
	rootCmd.PersistentFlags().StringVarP(&flagOut, "out", "o", "", "output directory (default: <project>/out)")
	rootCmd.PersistentFlags().StringVarP(&flagPrefix, "prefix", "p", "", "install prefix (default: <out>/prefix)")
	rootCmd.PersistentFlags().BoolVarP(&flagDisableDeps, "no-deps", "D", false, "skip the dependency-resolution phase")
	rootCmd.PersistentFlags().BoolVarP(&flagForce, "force", "f", false, "ignore the cached dependency tree and re-resolve")
	rootCmd.PersistentFlags().BoolVarP(&flagAssertOwns, "assert-owner", "O", false, "assert the invoking user owns the install prefix")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colored log output")

	rootCmd.AddCommand(buildCmd, runCmd, installCmd, lspCmd, depTreeCmd, skeletonCmd, packageCmd)
}

func newProject() (*orchestrator.Project, error) {
	return orchestrator.New(orchestrator.Config{
		ProjectDir:       flagDir,
		OutDir:           flagOut,
		Prefix:           flagPrefix,
		DisableDeps:      flagDisableDeps,
		Force:            flagForce,
		AssertOwnsPrefix: flagAssertOwns,
		NoColor:          flagNoColor,
		Log:              logging.New(os.Stdout, os.Stderr),
	})
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Resolve dependencies and run the project's build steps",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newProject()
		if err != nil {
			return err
		}
		_, err = p.Build(cmd.Context(), orchestrator.ModeBuild)
		return err
	},
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Build, then copy build outputs into the install prefix",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newProject()
		if err != nil {
			return err
		}
		res, err := p.Build(cmd.Context(), orchestrator.ModeBuild)
		if err != nil {
			return err
		}
		return p.Install(res)
	},
}

var runCmd = &cobra.Command{
	Use:                "run -- [extra-args...]",
	Short:              "Build, install, then run the project's declared command",
	Args:               cobra.ArbitraryArgs,
	DisableFlagParsing: false,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newProject()
		if err != nil {
			return err
		}
		res, err := p.Build(cmd.Context(), orchestrator.ModeBuild)
		if err != nil {
			return err
		}
		if err := p.Install(res); err != nil {
			return err
		}
		return p.Run(cmd.Context(), res, args)
	},
}

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Build the project and emit a compile_commands.json compile database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newProject()
		if err != nil {
			return err
		}
		res, err := p.Build(cmd.Context(), orchestrator.ModeLSP)
		if err != nil {
			return err
		}
		return writeCompileDB(p, res)
	},
}

var depTreeCmd = &cobra.Command{
	Use:    "dep-tree [ancestor-hash...]",
	Short:  "Internal: resolve and serialize this project's own dependency subtree",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newProject()
		if err != nil {
			return err
		}
		selfExe, err := os.Executable()
		if err != nil {
			return err
		}
		out, err := deptree.HandleDepTreeInstruction(cmd.Context(), selfExe, args, p.ReadOwnDeps, p.Cfg().DepsRoot)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

var skeletonCmd = &cobra.Command{
	Use:   "skeleton <template> [out-dir]",
	Short: "Scaffold a new project from a built-in template",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := skeleton.Load()
		if err != nil {
			return err
		}
		outDir := "."
		if len(args) == 2 {
			outDir = args[1]
		}
		return reg.Write(args[0], outDir)
	},
}

var packageCmd = &cobra.Command{
	Use:   "package <format> [name] [out-file]",
	Short: "Build, install, then archive the install prefix",
	Args:  cobra.RangeArgs(1, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newProject()
		if err != nil {
			return err
		}
		res, err := p.Build(cmd.Context(), orchestrator.ModeBuild)
		if err != nil {
			return err
		}
		if err := p.Install(res); err != nil {
			return err
		}

		format, err := pkgformat.ParseFormat(args[0])
		if err != nil {
			return err
		}
		name := pkgformat.DefaultName(p.Cfg().ProjectDir)
		if len(args) >= 2 {
			name = args[1]
		}
		outFile := pkgformat.OutFileName(name, format)
		if len(args) == 3 {
			outFile = args[2]
		}

		if err := pkgformat.Archive(format, p.Cfg().Prefix, outFile); err != nil {
			return err
		}
		fmt.Printf("+ wrote %s\n", outFile)
		return nil
	},
}

// compileDBRecord is one compile_commands.json entry, the conventional
// clangd-consumed shape (directory/file/arguments).
type compileDBRecord struct {
	Directory string   `json:"directory"`
	File      string   `json:"file"`
	Arguments []string `json:"arguments"`
}

func writeCompileDB(p *orchestrator.Project, res *orchestrator.Result) error {
	records := make([]compileDBRecord, 0, len(res.CompileDB))
	for _, e := range res.CompileDB {
		records = append(records, compileDBRecord{
			Directory: e.Directory,
			File:      e.File,
			Arguments: e.Arguments,
		})
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return berr.Wrap(berr.System, err, "encoding compile database")
	}

	path := filepath.Join(p.Cfg().OutDir, "compile_commands.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return berr.Wrap(berr.System, err, "writing %s", path)
	}
	fmt.Printf("+ wrote %s\n", path)
	return nil
}
