// Package sigcache indexes the local signature cache: a flat directory with
// one file per accession, named <accession>.sig. Presence of the file is the
// sole "already cached" signal.
package sigcache

import (
	"os"
	"path/filepath"

	"github.com/glorpus-work/sigsync/pkg/errors"
	"github.com/glorpus-work/sigsync/pkg/fsutil"
)

// DefaultExtension is the canonical signature file extension.
const DefaultExtension = ".sig"

// Cache describes a local signature cache directory.
type Cache struct {
	Dir string
	Ext string
}

// New creates a Cache over dir using the default extension.
func New(dir string) *Cache {
	return &Cache{Dir: dir, Ext: DefaultExtension}
}

// PathFor returns the canonical path for an accession's signature.
func (c *Cache) PathFor(accession string) string {
	return filepath.Join(c.Dir, accession+c.Ext)
}

// EnsureDir creates the cache directory if it does not exist. This is the
// only fatal precondition of a run: nothing downstream is meaningful if the
// cache directory cannot be created.
func (c *Cache) EnsureDir() error {
	if c.Dir == "" {
		return errors.ErrCacheDirectory
	}
	if err := os.MkdirAll(c.Dir, fsutil.DirModeDefault); err != nil {
		return errors.Wrap(errors.ErrCacheCreate, err.Error())
	}
	return nil
}

// Split partitions accessions into those whose signature already exists on
// disk (mapped to their path) and those still missing. It has no side
// effects and never overlaps the two sets.
func (c *Cache) Split(accessions map[string]struct{}) (present map[string]string, missing map[string]struct{}) {
	present = make(map[string]string)
	missing = make(map[string]struct{})

	for acc := range accessions {
		path := c.PathFor(acc)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			present[acc] = path
		} else {
			missing[acc] = struct{}{}
		}
	}
	return present, missing
}
