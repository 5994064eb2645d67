// Package cli drives the anonymizer from the command line: single-file and
// directory batch modes, config assembly, and the config subcommand.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"dicom-anonymizer/internal/anonymizer"
	dcm "dicom-anonymizer/internal/dicom"
	"dicom-anonymizer/internal/progress"
)

// Options holds the anonymize command configuration.
type Options struct {
	Input        string // file, directory, or "-" for stdin
	Output       string // file, directory, or "-" for stdout
	ConfigPath   string
	UIDRoot      string
	Exclude      string // comma-separated tag list forced to Keep
	Recursive    bool
	Continue     bool // downgrade "input is not DICOM" to a skip
	Retry        bool // retry previously failed files
	Workers      int
	OutputWriter func(string)
}

// Stats holds batch processing statistics.
type Stats struct {
	Success int
	Failed  int
	Skipped int
}

// Run executes the anonymize command. A non-nil error means the process
// should exit non-zero.
func Run(opts Options) error {
	output := opts.OutputWriter
	if output == nil {
		output = func(s string) { fmt.Fprint(os.Stderr, s) }
	}

	if opts.Input == "" {
		return fmt.Errorf("input is required")
	}
	if opts.Output == "" {
		return fmt.Errorf("output is required")
	}

	cfg, err := BuildConfig(ConfigOptions{
		Path:    opts.ConfigPath,
		UIDRoot: opts.UIDRoot,
		Exclude: ParseTagList(opts.Exclude),
	})
	if err != nil {
		return err
	}
	anon := anonymizer.New(cfg)

	if opts.Input != "-" {
		info, err := os.Stat(opts.Input)
		if err != nil {
			return fmt.Errorf("input does not exist: %s", opts.Input)
		}
		if info.IsDir() {
			return runBatch(anon, opts, output)
		}
	}
	return runSingle(anon, opts)
}

// runSingle anonymizes one file or stream.
func runSingle(anon *anonymizer.Anonymizer, opts Options) error {
	in := os.Stdin
	if opts.Input != "-" {
		file, err := os.Open(opts.Input)
		if err != nil {
			return fmt.Errorf("could not open input: %w", err)
		}
		defer file.Close()
		in = file
	}

	artifact, err := anon.Anonymize(in)
	if err != nil {
		if opts.Continue && errors.Is(err, dcm.ErrRead) {
			return nil
		}
		return err
	}

	if opts.Output == "-" {
		return artifact.Write(os.Stdout)
	}
	if err := os.MkdirAll(filepath.Dir(opts.Output), 0755); err != nil {
		return fmt.Errorf("could not create output directory: %w", err)
	}
	out, err := os.Create(opts.Output)
	if err != nil {
		return fmt.Errorf("could not create output: %w", err)
	}
	defer out.Close()
	return artifact.Write(out)
}

// runBatch anonymizes every DICOM file under the input directory into a
// mirrored tree under the output directory. Files fan out across a bounded
// worker pool; the shared config is immutable, so workers need no
// coordination beyond the stats and journal locks.
func runBatch(anon *anonymizer.Anonymizer, opts Options, output func(string)) error {
	if opts.Output == "-" {
		return fmt.Errorf("output must be a directory when input is a directory")
	}

	files, err := dcm.FindDicomFiles(opts.Input, opts.Recursive, opts.Output)
	if err != nil {
		return fmt.Errorf("could not find DICOM files: %w", err)
	}
	if len(files) == 0 {
		output(fmt.Sprintf("No DICOM files found in %s\n", opts.Input))
		return nil
	}
	output(fmt.Sprintf("Found %d DICOM file(s) in %s\n", len(files), opts.Input))

	if err := os.MkdirAll(opts.Output, 0755); err != nil {
		return fmt.Errorf("could not create output directory: %w", err)
	}
	journalPath := filepath.Join(opts.Output, ".progress.json")
	journal := progress.NewJournal(journalPath, anon.Config().Fingerprint())
	if opts.Retry {
		if dropped := journal.DropFailures(); dropped > 0 {
			output(fmt.Sprintf("Retrying %d previously failed file(s)\n", dropped))
		}
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	stats := &Stats{}
	pb := newProgressBar(50, output)
	var mu sync.Mutex
	done := 0

	jobs := make(chan string)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for filePath := range jobs {
				outcome, errMsg := processFile(anon, opts, journal, filePath)

				mu.Lock()
				switch outcome {
				case progress.OutcomeAnonymized:
					stats.Success++
				case progress.OutcomeSkipped:
					stats.Skipped++
				case progress.OutcomeFailed:
					stats.Failed++
					output(fmt.Sprintf("\nError: %s: %s\n", filepath.Base(filePath), errMsg))
				}
				done++
				pb.update(done, len(files))
				mu.Unlock()
			}
		}()
	}
	for _, filePath := range files {
		jobs <- filePath
	}
	close(jobs)
	wg.Wait()

	output("\n")
	output(fmt.Sprintf("%s\n", strings.Repeat("=", 50)))
	output(fmt.Sprintf("Complete! %d succeeded, %d failed, %d skipped\n",
		stats.Success, stats.Failed, stats.Skipped))
	if stats.Failed > 0 {
		output(fmt.Sprintf("  failures recorded in %s, re-run with --retry\n", journalPath))
	}
	output(fmt.Sprintf("Output: %s\n", opts.Output))

	if stats.Failed > 0 {
		return fmt.Errorf("%d file(s) failed", stats.Failed)
	}
	return nil
}

// processFile anonymizes a single batch file and journals the outcome. The
// journaled error of a failed file carries the engine's element context
// (tag, VR, cause); --retry re-processes failed files but does not print it.
func processFile(anon *anonymizer.Anonymizer, opts Options, journal *progress.Journal, filePath string) (progress.Outcome, string) {
	if journal.Done(filePath) {
		return progress.OutcomeSkipped, ""
	}

	relPath, err := filepath.Rel(opts.Input, filePath)
	if err != nil {
		relPath = filepath.Base(filePath)
	}
	outputPath := filepath.Join(opts.Output, relPath)

	ds, err := dcm.ReadFile(filePath)
	if err != nil {
		if opts.Continue && errors.Is(err, dcm.ErrRead) {
			journal.RecordSkip(filePath, err.Error())
			return progress.OutcomeSkipped, ""
		}
		journal.RecordFailure(filePath, err)
		return progress.OutcomeFailed, err.Error()
	}

	if err := anon.AnonymizeDataset(&ds); err != nil {
		journal.RecordFailure(filePath, err)
		return progress.OutcomeFailed, err.Error()
	}

	if err := dcm.WriteFile(outputPath, ds); err != nil {
		journal.RecordFailure(filePath, err)
		return progress.OutcomeFailed, err.Error()
	}

	journal.RecordSuccess(filePath, outputPath)
	return progress.OutcomeAnonymized, ""
}

// CreateOptions holds the config create subcommand configuration.
type CreateOptions struct {
	Output   string // file or "-" for stdout
	UIDRoot  string
	Exclude  string
	DiffOnly bool
}

// CreateConfig emits the effective configuration as JSON (or YAML when the
// output file has a .yaml/.yml extension).
func CreateConfig(opts CreateOptions) error {
	cfg, err := BuildConfig(ConfigOptions{
		UIDRoot: opts.UIDRoot,
		Exclude: ParseTagList(opts.Exclude),
	})
	if err != nil {
		return err
	}

	data, err := EncodeConfig(cfg, opts.Output, opts.DiffOnly)
	if err != nil {
		return err
	}

	if opts.Output == "" || opts.Output == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(opts.Output), 0755); err != nil {
		return fmt.Errorf("could not create output directory: %w", err)
	}
	return os.WriteFile(opts.Output, data, 0644)
}

// progressBar renders a terminal progress bar through the output writer.
type progressBar struct {
	width  int
	output func(string)
}

func newProgressBar(width int, output func(string)) *progressBar {
	return &progressBar{width: width, output: output}
}

func (pb *progressBar) update(current, total int) {
	if total == 0 {
		return
	}
	percent := float64(current) / float64(total)
	filled := int(percent * float64(pb.width))
	if filled > pb.width {
		filled = pb.width
	}
	bar := strings.Repeat("#", filled) + strings.Repeat("-", pb.width-filled)
	pb.output(fmt.Sprintf("\r[%s] %3.0f%%  (%d/%d)", bar, percent*100, current, total))
}
