// Package progress persists the journal of a batch anonymization run, so an
// interrupted or partially failed run can resume without re-anonymizing
// inputs that already went through the current rule set.
package progress

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"dicom-anonymizer/internal/hashing"
)

// Outcome classifies what happened to one input file.
type Outcome string

const (
	// OutcomeAnonymized means the file was de-identified and written out.
	OutcomeAnonymized Outcome = "anonymized"
	// OutcomeFailed means an action or I/O error aborted the file.
	OutcomeFailed Outcome = "failed"
	// OutcomeSkipped means the input was not DICOM and --continue let it pass.
	OutcomeSkipped Outcome = "skipped"
)

// Entry is the journal record for one input file. The error string of a
// failed entry carries the engine's element context (tag, VR, cause) and
// stays readable in the journal file; a --retry run drops failed entries so
// those files are processed again, without printing the recorded errors.
type Entry struct {
	Outcome Outcome `json:"outcome"`
	Input   string  `json:"input"` // fingerprint of the input bytes' identity
	Output  string  `json:"output,omitempty"`
	Error   string  `json:"error,omitempty"`
	At      string  `json:"at"`
}

// journalFile is the persisted shape. The rule-set fingerprint is stored
// once at the top: entries only ever describe runs of that exact config.
type journalFile struct {
	Config  string            `json:"config"`
	Entries map[string]*Entry `json:"entries"`
	Updated string            `json:"updated"`
}

// Journal tracks per-file outcomes for one rule set. State recorded under a
// different config fingerprint is discarded on load — output produced by
// another rule set says nothing about what the current one would do.
// Safe for use from multiple workers.
type Journal struct {
	mu      sync.Mutex
	path    string
	config  string
	entries map[string]*Entry
}

// NewJournal opens the journal at path for the rule set identified by
// configFingerprint. An empty path keeps the journal in memory only.
func NewJournal(path, configFingerprint string) *Journal {
	j := &Journal{
		path:    path,
		config:  configFingerprint,
		entries: make(map[string]*Entry),
	}
	if path != "" {
		j.load()
	}
	return j
}

func (j *Journal) load() {
	data, err := os.ReadFile(j.path)
	if err != nil {
		return // no previous run
	}
	var jf journalFile
	if err := json.Unmarshal(data, &jf); err != nil {
		return // unreadable state starts fresh
	}
	if jf.Config != j.config {
		return // recorded under another rule set
	}
	if jf.Entries != nil {
		j.entries = jf.Entries
	}
}

func (j *Journal) save() {
	if j.path == "" {
		return
	}
	jf := journalFile{
		Config:  j.config,
		Entries: j.entries,
		Updated: time.Now().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(jf, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(j.path, data, 0644)
}

// fingerprintFile identifies the input bytes by size and mtime, digested
// with the same primitive the engine hashes values with. A touched or
// rewritten input no longer matches its journal entry and is re-processed.
func fingerprintFile(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	identity := fmt.Sprintf("%d|%d", info.Size(), info.ModTime().Unix())
	return hashing.HashString([]byte(identity), 16)
}

// Done reports whether path was already anonymized under this rule set and
// has not changed since.
func (j *Journal) Done(path string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	entry, ok := j.entries[path]
	if !ok || entry.Outcome != OutcomeAnonymized {
		return false
	}
	return entry.Input == fingerprintFile(path)
}

// RecordSuccess journals a completed anonymization of path into output.
func (j *Journal) RecordSuccess(path, output string) {
	j.record(path, &Entry{Outcome: OutcomeAnonymized, Output: output})
}

// RecordFailure journals a failed anonymization of path.
func (j *Journal) RecordFailure(path string, err error) {
	j.record(path, &Entry{Outcome: OutcomeFailed, Error: err.Error()})
}

// RecordSkip journals a non-DICOM input that --continue let pass.
func (j *Journal) RecordSkip(path, reason string) {
	j.record(path, &Entry{Outcome: OutcomeSkipped, Error: reason})
}

func (j *Journal) record(path string, entry *Entry) {
	j.mu.Lock()
	defer j.mu.Unlock()

	entry.Input = fingerprintFile(path)
	entry.At = time.Now().Format(time.RFC3339)
	j.entries[path] = entry
	j.save()
}

// DropFailures forgets all failed entries so they are retried, returning
// the number dropped.
func (j *Journal) DropFailures() int {
	j.mu.Lock()
	defer j.mu.Unlock()

	dropped := 0
	for path, entry := range j.entries {
		if entry.Outcome == OutcomeFailed {
			delete(j.entries, path)
			dropped++
		}
	}
	if dropped > 0 {
		j.save()
	}
	return dropped
}

// Failures returns the journaled failures, keyed by input path.
func (j *Journal) Failures() map[string]string {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make(map[string]string)
	for path, entry := range j.entries {
		if entry.Outcome == OutcomeFailed {
			out[path] = entry.Error
		}
	}
	return out
}
