package diskmanager

import (
	"ValuePool/storage_engine/page"
	"ValuePool/types"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestDiskManagerPageIO(t *testing.T) {
	dir := t.TempDir()
	dm := NewDiskManager(nil, true)
	defer dm.CloseAll()

	// Test 1: two files with different page sizes
	_, err := dm.OpenFileWithID(filepath.Join(dir, "small"), 1, 16)
	require.NoError(t, err)
	_, err = dm.OpenFileWithID(filepath.Join(dir, "large"), 2, 64)
	require.NoError(t, err)

	// Test 2: whole page round trip through a frame
	pg := page.New(page.GlobalID(2, 3), 2, 64, types.PageTypeBlock)
	copy(pg.Data, "hello pages")
	pg.IsDirty = true
	require.NoError(t, dm.WritePage(pg))
	assert.False(t, pg.IsDirty)

	back, err := dm.ReadPage(page.GlobalID(2, 3), types.PageTypeBlock)
	require.NoError(t, err)
	assert.Equal(t, pg.Data, back.Data)

	n, err := dm.NumPages(2)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	// Test 3: partial writes and reads stay inside one page
	require.NoError(t, dm.WriteAt(1, 5, []byte("abc")))
	buf := make([]byte, 3)
	require.NoError(t, dm.ReadAt(1, 5, buf))
	assert.Equal(t, "abc", string(buf))
	assert.Error(t, dm.WriteAt(1, 0, make([]byte, 17)))

	// Test 4: reading past the end yields zeroes
	missing, err := dm.ReadPage(page.GlobalID(1, 99), types.PageTypeBlock)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 16), missing.Data)

	// Test 5: truncate and unknown files
	require.NoError(t, dm.Truncate(2, 1))
	n, err = dm.NumPages(2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = dm.NumPages(9)
	assert.ErrorIs(t, err, ErrFileNotFound)

	// Test 6: reopening keeps data
	require.NoError(t, dm.CloseFile(1))
	_, err = dm.OpenFileWithID(filepath.Join(dir, "small"), 1, 16)
	require.NoError(t, err)
	require.NoError(t, dm.ReadAt(1, 5, buf))
	assert.Equal(t, "abc", string(buf))
}

func TestLockFileIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pool.lock")

	lock, err := LockFile(path)
	require.NoError(t, err)

	_, err = LockFile(path)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, lock.Release())
	again, err := LockFile(path)
	require.NoError(t, err)
	require.NoError(t, again.Release())
}

func TestLockOnReleasedFileIsDetected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pool.lock")
	lock, err := LockFile(path)
	require.NoError(t, err)

	// opened before the release, locked after it
	early, err := os.Open(path)
	require.NoError(t, err)
	defer early.Close()
	require.NoError(t, lock.Release())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, unix.Flock(int(early.Fd()), unix.LOCK_EX|unix.LOCK_NB))
	same, err := stillLinked(early, path)
	require.NoError(t, err)
	assert.False(t, same)

	again, err := LockFile(path)
	require.NoError(t, err)
	same, err = stillLinked(again.file, path)
	require.NoError(t, err)
	assert.True(t, same)
	require.NoError(t, again.Release())
}
