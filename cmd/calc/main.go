// Command calc is the CLI driver: run a file, run inline statements, or
// drop into an interactive REPL. It owns process-exit semantics; the
// embedding API (package calc) never calls os.Exit itself.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/xirelogy/go-calc/internal/version"
)

var (
	flagFile        string
	flagLines       []string
	flagVerbose     bool
	flagRepl        bool
	flagDisassemble bool
)

var rootCmd = &cobra.Command{
	Use:   "calc",
	Short: "A small embeddable expression calculator",
	Long:  "calc compiles and runs the expression/calculation language described in the embedding package " + `"calc"` + ".",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVarP(&flagFile, "input", "i", "", "run a source file")
	rootCmd.Flags().StringArrayVarP(&flagLines, "command", "c", nil, "run inline statements (repeatable)")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "print the calc version before running")
	rootCmd.Flags().BoolVarP(&flagRepl, "repl", "r", false, "re-enter the REPL after running -i/-c")
	rootCmd.Flags().BoolVarP(&flagDisassemble, "disassemble", "d", false, "compile -i/-c and print bytecode instead of running it")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Sprint(err))
		os.Exit(1)
	}
}

var errorStyle = color.New(color.FgRed, color.Bold)

func run(cmd *cobra.Command, args []string) error {
	if flagVerbose {
		fmt.Fprintln(os.Stdout, version.String())
	}

	if flagDisassemble {
		source, err := readSource()
		if err != nil {
			return err
		}
		return disassembleSource(source, os.Stdout)
	}

	vm := newCalcVM()
	ran := false
	exitCode := 0

	if flagFile != "" {
		ran = true
		if code := vm.RunFile(flagFile, os.Stderr); code != 0 {
			exitCode = code
		}
	}

	if len(flagLines) > 0 {
		ran = true
		source := joinLines(flagLines)
		if code := runSource(vm, source); code != 0 {
			exitCode = code
		}
	}

	if !ran || flagRepl {
		if err := vm.REPL(';', os.Stdin, os.Stdout, os.Stderr); err != nil {
			return err
		}
	}

	if exitCode != 0 {
		os.Exit(exitCode)
	}
	return nil
}

// readSource resolves -i/-c into a single source string for -d, since
// disassembly has no VM to hand a file or line list to.
func readSource() (string, error) {
	if flagFile != "" {
		data, err := os.ReadFile(flagFile)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	if len(flagLines) > 0 {
		return joinLines(flagLines), nil
	}
	return "", fmt.Errorf("-d requires -i or -c")
}

// joinLines implements the -c contract: strip any trailing ';' off each
// argument, then glue them back together with ";\n" so each becomes its
// own statement regardless of how the shell split them.
func joinLines(lines []string) string {
	trimmed := make([]string, len(lines))
	for i, l := range lines {
		trimmed[i] = strings.TrimSuffix(strings.TrimSpace(l), ";")
	}
	return strings.Join(trimmed, ";\n") + ";\n"
}
