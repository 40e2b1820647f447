package diskmanager

import (
	"ValuePool/storage_engine/page"
	"ValuePool/types"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

/*
This is main file for disk manager
It owns:
File descriptors (os.File)
Reading/writing raw bytes at page aligned offsets (ReadAt, WriteAt)
The globalPageID ↔ (fileID, localPage) mapping

Page ID encoding:
globalPageID = int64(fileID) << 32 | localPageNum
Global ids are deterministic, the same on every restart, so the buffer pool can key frames by them.

Unlike a heap file every file here has its own page size: the AVL file uses node sized pages
and each overflow class doubles the page size of the previous one.
Page allocation is not done here, the block store decides which page numbers are in use.
*/

var (
	ErrFileNotFound = errors.New("file not registered with disk manager")
	ErrFileClosed   = errors.New("file is closed")
	ErrLocked       = errors.New("file is locked by another process")
)

func NewDiskManager(log *zap.SugaredLogger, syncWrites bool) *DiskManager {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &DiskManager{
		files:      make(map[uint32]*FileDescriptor),
		syncWrites: syncWrites,
		log:        log,
	}
}

// OpenFileWithID opens (creating if needed) filePath under a caller chosen file id.
// Ids come from the catalog so they are stable across restarts.
func (dm *DiskManager) OpenFileWithID(filePath string, fileID uint32, pageSize int) (uint32, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if fd, exists := dm.files[fileID]; exists {
		if fd.FilePath != filePath {
			return 0, errors.Newf("file id %d already used by %s", fileID, fd.FilePath)
		}
		return fileID, nil
	}

	file, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to open file %s", filePath)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return 0, errors.Wrapf(err, "failed to stat file %s", filePath)
	}

	dm.files[fileID] = &FileDescriptor{
		FileID:   fileID,
		FilePath: filePath,
		File:     file,
		PageSize: pageSize,
		NumPages: stat.Size() / int64(pageSize),
	}
	dm.log.Debugf("[DiskManager] OPEN path=%s fileID=%d pageSize=%d pages=%d", filePath, fileID, pageSize, stat.Size()/int64(pageSize))
	return fileID, nil
}

func (dm *DiskManager) descriptor(fileID uint32) (*FileDescriptor, error) {
	dm.mu.RLock()
	fd, exists := dm.files[fileID]
	dm.mu.RUnlock()
	if !exists {
		return nil, errors.Wrapf(ErrFileNotFound, "file %d", fileID)
	}
	return fd, nil
}

// PageSize returns the page size a file was opened with.
func (dm *DiskManager) PageSize(fileID uint32) (int, error) {
	fd, err := dm.descriptor(fileID)
	if err != nil {
		return 0, err
	}
	return fd.PageSize, nil
}

// ReadPage reads a whole page into a fresh frame. Pages past the end of the file read as zeroes.
func (dm *DiskManager) ReadPage(globalPageID int64, pageType types.PageType) (*page.Page, error) {
	fileID := uint32(globalPageID >> 32)
	fd, err := dm.descriptor(fileID)
	if err != nil {
		return nil, err
	}

	pg := page.New(globalPageID, fileID, fd.PageSize, pageType)
	if err := dm.readAt(fd, page.LocalID(globalPageID), pg.Data); err != nil {
		return nil, err
	}
	return pg, nil
}

// ReadAt reads len(buf) bytes from the start of a local page. buf may be shorter than the page.
func (dm *DiskManager) ReadAt(fileID uint32, localPageID int64, buf []byte) error {
	fd, err := dm.descriptor(fileID)
	if err != nil {
		return err
	}
	if len(buf) > fd.PageSize {
		return errors.Newf("read of %d bytes exceeds page size %d of file %d", len(buf), fd.PageSize, fileID)
	}
	return dm.readAt(fd, localPageID, buf)
}

func (dm *DiskManager) readAt(fd *FileDescriptor, localPageID int64, buf []byte) error {
	fd.mu.RLock()
	defer fd.mu.RUnlock()

	if fd.File == nil {
		return errors.Wrapf(ErrFileClosed, "file %d", fd.FileID)
	}

	n, err := fd.File.ReadAt(buf, localPageID*int64(fd.PageSize))
	if err != nil && err != io.EOF {
		return errors.Wrapf(err, "failed to read page %d from file %d", localPageID, fd.FileID)
	}
	// Pad with zeros if partial read
	clear(buf[n:])
	return nil
}

// WritePage writes a whole frame back to its page.
func (dm *DiskManager) WritePage(pg *page.Page) error {
	fd, err := dm.descriptor(pg.FileID)
	if err != nil {
		return err
	}
	if len(pg.Data) != fd.PageSize {
		return errors.Newf("page data size %d does not match page size %d", len(pg.Data), fd.PageSize)
	}
	if err := dm.writeAt(fd, page.LocalID(pg.ID), pg.Data); err != nil {
		return err
	}
	pg.IsDirty = false
	return nil
}

// WriteAt writes data at the start of a local page. data may be shorter than the page.
func (dm *DiskManager) WriteAt(fileID uint32, localPageID int64, data []byte) error {
	fd, err := dm.descriptor(fileID)
	if err != nil {
		return err
	}
	if len(data) > fd.PageSize {
		return errors.Newf("write of %d bytes exceeds page size %d of file %d", len(data), fd.PageSize, fileID)
	}
	return dm.writeAt(fd, localPageID, data)
}

func (dm *DiskManager) writeAt(fd *FileDescriptor, localPageID int64, data []byte) error {
	fd.mu.Lock()
	defer fd.mu.Unlock()

	if fd.File == nil {
		return errors.Wrapf(ErrFileClosed, "file %d", fd.FileID)
	}

	if _, err := fd.File.WriteAt(data, localPageID*int64(fd.PageSize)); err != nil {
		return errors.Wrapf(err, "failed to write page %d to file %d", localPageID, fd.FileID)
	}

	if localPageID >= fd.NumPages {
		fd.NumPages = localPageID + 1
	}
	return nil
}

// Sync flushes one file to stable storage.
func (dm *DiskManager) Sync(fileID uint32) error {
	fd, err := dm.descriptor(fileID)
	if err != nil {
		return err
	}
	return dm.sync(fd)
}

func (dm *DiskManager) sync(fd *FileDescriptor) error {
	fd.mu.Lock()
	defer fd.mu.Unlock()

	if fd.File == nil {
		return errors.Wrapf(ErrFileClosed, "file %d", fd.FileID)
	}
	if !dm.syncWrites {
		return nil
	}
	if err := fd.File.Sync(); err != nil {
		return errors.Wrapf(err, "failed to sync file %d", fd.FileID)
	}
	return nil
}

// Truncate shrinks or extends a file to exactly pages pages.
func (dm *DiskManager) Truncate(fileID uint32, pages int64) error {
	fd, err := dm.descriptor(fileID)
	if err != nil {
		return err
	}

	fd.mu.Lock()
	defer fd.mu.Unlock()

	if fd.File == nil {
		return errors.Wrapf(ErrFileClosed, "file %d", fileID)
	}
	if err := fd.File.Truncate(pages * int64(fd.PageSize)); err != nil {
		return errors.Wrapf(err, "failed to truncate file %d", fileID)
	}
	fd.NumPages = pages
	return nil
}

// NumPages returns the number of pages the file currently spans.
func (dm *DiskManager) NumPages(fileID uint32) (int64, error) {
	fd, err := dm.descriptor(fileID)
	if err != nil {
		return 0, err
	}
	fd.mu.RLock()
	defer fd.mu.RUnlock()
	return fd.NumPages, nil
}

// CloseFile syncs and closes a specific file
func (dm *DiskManager) CloseFile(fileID uint32) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	fd, exists := dm.files[fileID]
	if !exists {
		return errors.Wrapf(ErrFileNotFound, "file %d", fileID)
	}
	delete(dm.files, fileID)
	return dm.closeDescriptor(fd)
}

func (dm *DiskManager) closeDescriptor(fd *FileDescriptor) error {
	fd.mu.Lock()
	defer fd.mu.Unlock()

	if fd.File == nil {
		return nil // Already closed
	}

	var err error
	if dm.syncWrites {
		if serr := fd.File.Sync(); serr != nil {
			err = errors.Wrapf(serr, "failed to sync file %d before close", fd.FileID)
		}
	}
	if cerr := fd.File.Close(); cerr != nil && err == nil {
		err = errors.Wrapf(cerr, "failed to close file %d", fd.FileID)
	}
	fd.File = nil
	return err
}

// CloseAll closes all open files and returns the first failure.
func (dm *DiskManager) CloseAll() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	var firstErr error
	for fileID, fd := range dm.files {
		if err := dm.closeDescriptor(fd); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(dm.files, fileID)
	}
	return firstErr
}

// TotalBytes returns the bytes spanned by every open file.
func (dm *DiskManager) TotalBytes() int64 {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	total := int64(0)
	for _, fd := range dm.files {
		fd.mu.RLock()
		total += fd.NumPages * int64(fd.PageSize)
		fd.mu.RUnlock()
	}
	return total
}
