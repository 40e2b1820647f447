package diskmanager

import (
	"os"
	"sync"

	"go.uber.org/zap"
)

// FileDescriptor is one paged pool file. Page p lives at offset p*PageSize.
type FileDescriptor struct {
	FileID   uint32
	FilePath string
	File     *os.File
	PageSize int   // every page of a file has the same size
	NumPages int64 // pages currently backed by the file
	mu       sync.RWMutex
}

// DiskManager owns the open pool files and moves whole pages in and out of them.
type DiskManager struct {
	files      map[uint32]*FileDescriptor // fileID -> file descriptor
	syncWrites bool                       // false skips fsync, used by tests
	log        *zap.SugaredLogger
	mu         sync.RWMutex
}

// FileLock is an exclusive advisory lock held on a lock file for the life of a pool.
type FileLock struct {
	path string
	file *os.File
}
