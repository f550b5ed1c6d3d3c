// Package manifest writes the run catalog: one local signature path per
// line for every accession known to exist on disk after a run.
package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/glorpus-work/sigsync/pkg/errors"
	"github.com/glorpus-work/sigsync/pkg/fsutil"
	"github.com/glorpus-work/sigsync/pkg/model"
)

// Write emits the union of pre-existing and newly fetched signature paths to
// w, sorted by accession, one path per line. Every path is re-checked on
// disk immediately before writing; paths that vanished (or outcomes that
// misreport) are dropped rather than trusted. Returns the number of paths
// written.
func Write(w io.Writer, present map[string]string, outcomes map[string]model.Outcome) (int, error) {
	paths := make(map[string]string, len(present))
	for acc, path := range present {
		paths[acc] = path
	}
	for acc, outcome := range outcomes {
		if outcome.Status == model.StatusFetched {
			paths[acc] = outcome.Path
		}
	}

	accessions := make([]string, 0, len(paths))
	for acc := range paths {
		accessions = append(accessions, acc)
	}
	sort.Strings(accessions)

	buf := bufio.NewWriter(w)
	written := 0
	for _, acc := range accessions {
		path := paths[acc]
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			continue
		}
		if _, err := fmt.Fprintln(buf, path); err != nil {
			return written, errors.Wrap(err, "failed to write catalog entry")
		}
		written++
	}
	if err := buf.Flush(); err != nil {
		return written, errors.Wrap(err, "failed to flush catalog")
	}
	return written, nil
}

// WriteFile writes the catalog to path via a temp file and atomic rename.
func WriteFile(path string, present map[string]string, outcomes map[string]model.Outcome) (int, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "catalog-*.tmp")
	if err != nil {
		return 0, errors.Wrap(err, "could not create temp catalog")
	}
	tmpPath := tmp.Name()

	written, err := Write(tmp, present, outcomes)
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return written, err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return written, errors.Wrap(err, "could not close temp catalog")
	}

	if err := fsutil.Move(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return written, errors.Wrap(err, "could not finalize catalog")
	}
	if err := os.Chmod(path, fsutil.FileModeDefault); err != nil {
		return written, errors.Wrap(err, "could not set permissions")
	}
	return written, nil
}

// ReadPaths reads a catalog back as a list of paths, skipping blank lines.
func ReadPaths(r io.Reader) ([]string, error) {
	var paths []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			paths = append(paths, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read catalog")
	}
	return paths, nil
}
