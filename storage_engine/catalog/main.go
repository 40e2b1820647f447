package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

/*
Catalog maintains the names of the files making up one pool.
Names and file ids are pure functions of the base path and the region, so a pool reopened after
a crash finds its overflow class files and the disk manager hands out the same global page ids.

	<base>.sp          metaroot
	<base>.sp_avl      ordered index nodes
	<base>.sp_nd       node table
	<base>.sp_NN       overflow blocks of size class NN
	<base>.sp_fl0/1    free list checkpoint of metaroot slot 0/1
	<base>.sp_ndj      node table journal
	<base>.sp.lock     lock file
*/

const (
	ext = ".sp"

	MetarootFileID uint32 = 1
	AVLFileID      uint32 = 2
	NodeFileID     uint32 = 3
	firstBlockID   uint32 = 16
)

func NewCatalog(base string) (*Catalog, error) {
	if base == "" {
		return nil, errors.New("empty pool path")
	}
	dir := filepath.Dir(base)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create pool directory %s", dir)
	}
	return &Catalog{base: base}, nil
}

func (c *Catalog) file(suffix string, id uint32) File {
	return File{Name: filepath.Base(c.base) + suffix, Path: c.base + suffix, FileID: id}
}

func (c *Catalog) Base() string { return c.base }

func (c *Catalog) MetarootFile() File { return c.file(ext, MetarootFileID) }
func (c *Catalog) AVLFile() File      { return c.file(ext+"_avl", AVLFileID) }
func (c *Catalog) NodeFile() File     { return c.file(ext+"_nd", NodeFileID) }
func (c *Catalog) JournalFile() File  { return c.file(ext+"_ndj", 0) }
func (c *Catalog) LockFile() File     { return c.file(ext+".lock", 0) }

// BlockFile names the file of overflow size class class.
func (c *Catalog) BlockFile(class int) File {
	return c.file(fmt.Sprintf("%s_%02d", ext, class), firstBlockID+uint32(class))
}

// FreeListFile names the free list checkpoint written with metaroot slot slot.
func (c *Catalog) FreeListFile(slot int) File {
	return c.file(fmt.Sprintf("%s_fl%d", ext, slot), 0)
}

// Exists reports whether a metaroot has ever been written for this base path.
func (c *Catalog) Exists() bool {
	info, err := os.Stat(c.MetarootFile().Path)
	return err == nil && info.Size() > 0
}
