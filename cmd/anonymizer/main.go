package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"dicom-anonymizer/internal/cli"
)

const usage = `DICOM Anonymizer

USAGE:
  anonymizer -i <path|-> -o <path|-> [flags]   Anonymize a file, stream or directory
  anonymizer config create [flags]             Emit the effective config

ANONYMIZE FLAGS:
  -i, --input <path|->    Input DICOM file, directory, or - for stdin (required)
  -o, --output <path|->   Output file, directory, or - for stdout (required)
  -c, --config <path>     Rule-set config file (.json, .yaml or .yml)
  -u, --uid-root <root>   UID root for re-minted UIDs (default "9999")
      --exclude <tags>    Comma-separated tags to keep, e.g. 00100020,(0008,0050)
  -r, --recursive         Recurse into subdirectories (default true)
      --continue          Skip inputs that are not DICOM instead of failing
      --retry             Retry files that failed in a previous run
  -j, --jobs <n>          Parallel workers for directory mode (default: CPUs)
  -h, --help              Show this help message

CONFIG CREATE FLAGS:
  -o <path|->             Output file or - for stdout (default: stdout)
  -u <root>               UID root to embed
      --exclude <tags>    Comma-separated tags to keep
      --diff-only         Emit only the delta against the built-in defaults

EXIT CODES:
  0  success (including skips under --continue)
  1  any processing, config or I/O error

EXAMPLES:
  anonymizer -i scan.dcm -o anon.dcm
  anonymizer -i - -o - < scan.dcm > anon.dcm
  anonymizer -i /data/study -o /data/study-anon -c rules.json --continue
  anonymizer config create -o rules.json -u 1.2.840.99999 --diff-only`

func main() {
	if len(os.Args) > 1 && os.Args[1] == "config" {
		if err := runConfig(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runAnonymize(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runAnonymize(args []string) error {
	fs := flag.NewFlagSet("anonymize", flag.ExitOnError)

	input := fs.String("input", "", "Input file, directory, or - for stdin")
	inputShort := fs.String("i", "", "Input (shorthand)")

	output := fs.String("output", "", "Output file, directory, or - for stdout")
	outputShort := fs.String("o", "", "Output (shorthand)")

	configPath := fs.String("config", "", "Rule-set config file")
	configShort := fs.String("c", "", "Config file (shorthand)")

	uidRoot := fs.String("uid-root", "", "UID root for re-minted UIDs")
	uidRootShort := fs.String("u", "", "UID root (shorthand)")

	exclude := fs.String("exclude", "", "Comma-separated tags to keep")

	recursive := fs.Bool("recursive", true, "Recurse into subdirectories")
	recursiveShort := fs.Bool("r", true, "Recursive (shorthand)")

	continueFlag := fs.Bool("continue", false, "Skip non-DICOM inputs")
	retry := fs.Bool("retry", false, "Retry previously failed files")

	jobs := fs.Int("jobs", 0, "Parallel workers for directory mode")
	jobsShort := fs.Int("j", 0, "Workers (shorthand)")

	fs.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	fs.Parse(args)

	opts := cli.Options{
		Input:      firstNonEmpty(*input, *inputShort),
		Output:     firstNonEmpty(*output, *outputShort),
		ConfigPath: firstNonEmpty(*configPath, *configShort),
		UIDRoot:    firstNonEmpty(*uidRoot, *uidRootShort),
		Exclude:    *exclude,
		Recursive:  *recursive && *recursiveShort,
		Continue:   *continueFlag,
		Retry:      *retry,
		Workers:    firstPositive(*jobs, *jobsShort, runtime.NumCPU()),
	}

	if opts.Input == "" || opts.Output == "" {
		fs.Usage()
		return fmt.Errorf("both -i and -o are required")
	}
	return cli.Run(opts)
}

func runConfig(args []string) error {
	if len(args) == 0 || args[0] != "create" {
		return fmt.Errorf("unknown config subcommand, expected: config create")
	}

	fs := flag.NewFlagSet("config create", flag.ExitOnError)
	output := fs.String("o", "-", "Output file or - for stdout")
	uidRoot := fs.String("u", "", "UID root to embed")
	exclude := fs.String("exclude", "", "Comma-separated tags to keep")
	diffOnly := fs.Bool("diff-only", false, "Emit only the delta against the defaults")

	fs.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	fs.Parse(args[1:])

	return cli.CreateConfig(cli.CreateOptions{
		Output:   *output,
		UIDRoot:  *uidRoot,
		Exclude:  *exclude,
		DiffOnly: *diffOnly,
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 1
}
