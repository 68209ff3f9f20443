package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/xplshn/gpyc/pkg/cli"
	"github.com/xplshn/gpyc/pkg/codegen"
	"github.com/xplshn/gpyc/pkg/config"
	"github.com/xplshn/gpyc/pkg/manifest"
	"github.com/xplshn/gpyc/pkg/util"
)

func main() {
	app := cli.NewApp("gpyc")
	app.Synopsis = "[options] <unit.yaml>"
	app.Description = "Lowers an analyzed Python unit to QBE: pools its literal constants, resolves every name to its access path and assembles the result."
	app.Authors = []string{"xplshn"}
	app.Repository = "<https://github.com/xplshn/gpyc>"
	app.Since = 2025

	var (
		outFile       string
		target        string
		headerFile    string
		largeConstant int
		dumpIR        bool
		dumpNames     bool
		verbose       bool
	)

	fs := app.FlagSet
	fs.String(&outFile, "output", "o", "", "Place the output into <file>. A .o suffix assembles with cc.", "file")
	fs.String(&target, "target", "t", "", "Set the QBE target ABI.", "target")
	fs.String(&headerFile, "header", "", "", "Also write the constant declarations as a C header.", "file")
	fs.Int(&largeConstant, "large-constant", "", config.DefaultLargeConstant, "Element count above which -Wlarge-constant reports a collection.", "n")
	fs.Bool(&dumpIR, "dump-ir", "d", false, "Dump the intermediate representation and exit.")
	fs.Bool(&dumpNames, "dump-names", "n", false, "Print how every referenced name resolved.")
	fs.Bool(&verbose, "verbose", "v", false, "Print progress information.")

	cfg := config.NewConfig()
	warningFlags, featureFlags := cfg.SetupFlagGroups(fs)

	app.Action = func(inputFiles []string) error {
		if len(inputFiles) != 1 {
			util.Error("expected exactly one unit, got %d", len(inputFiles))
			return fmt.Errorf("bad arguments")
		}
		input := inputFiles[0]

		cfg.ApplyFlagGroups(warningFlags, featureFlags)
		cfg.SetTarget(runtime.GOOS, runtime.GOARCH, target)
		cfg.LargeConstant = largeConstant
		cfg.Verbose = verbose

		util.Info(cfg, "reading '%s'", input)
		unit, err := manifest.Load(input)
		if err != nil {
			util.Error("%v", err)
			return err
		}

		util.Info(cfg, "building contexts for %s", unit.Module)
		res, err := manifest.Build(unit, cfg)
		if err != nil {
			util.Fatal(err)
		}
		if dumpNames {
			fmt.Print(res.Report())
		}

		util.Info(cfg, "lowering %d constants", res.Global.Pool().Len())
		prog, err := codegen.Lower(res.Root, res.Global)
		if err != nil {
			util.Fatal(err)
		}

		if headerFile != "" {
			if err := os.WriteFile(headerFile, []byte(codegen.Header(res.Root, res.Global)), 0o644); err != nil {
				util.Error("could not write header: %v", err)
				return err
			}
		}

		backend := codegen.NewQBEBackend()
		if dumpIR {
			irText, err := backend.GenerateIR(prog, cfg)
			if err != nil {
				util.Error("backend IR generation failed: %v", err)
				return err
			}
			fmt.Print(irText)
			return nil
		}

		util.Info(cfg, "generating code for target %s", cfg.BackendTarget)
		asm, err := backend.Generate(prog, cfg)
		if err != nil {
			util.Error("backend code generation failed: %v", err)
			return err
		}

		if outFile == "" {
			outFile = unit.CodeName + ".s"
		}
		if strings.HasSuffix(outFile, ".o") {
			util.Info(cfg, "assembling '%s'", outFile)
			if err := assemble(outFile, asm.String()); err != nil {
				util.Error("assembler failed: %v", err)
				return err
			}
			return nil
		}
		if err := os.WriteFile(outFile, asm.Bytes(), 0o644); err != nil {
			util.Error("could not write '%s': %v", outFile, err)
			return err
		}
		return nil
	}

	if err := app.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

func assemble(outFile, asm string) error {
	asmFile, err := os.CreateTemp("", "gpyc-"+strings.TrimSuffix(filepath.Base(outFile), ".o")+"-*.s")
	if err != nil {
		return fmt.Errorf("failed to create temp file for asm: %w", err)
	}
	defer os.Remove(asmFile.Name())
	if _, err := asmFile.WriteString(asm); err != nil {
		asmFile.Close()
		return fmt.Errorf("failed to write temp file for asm: %w", err)
	}
	asmFile.Close()

	cmd := exec.Command("cc", "-c", "-o", outFile, asmFile.Name())
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("cc command failed: %w\nOutput:\n%s", err, string(output))
	}
	return nil
}
