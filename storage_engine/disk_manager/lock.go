package diskmanager

import (
	"os"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

// lockAttempts bounds how often LockFile retries after losing the file to a concurrent Release.
const lockAttempts = 3

// LockFile takes an exclusive, non-blocking flock on path, creating it if needed.
func LockFile(path string) (*FileLock, error) {
	for attempt := 0; attempt < lockAttempts; attempt++ {
		file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open lock file %s", path)
		}
		if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
			file.Close()
			if errors.Is(err, unix.EWOULDBLOCK) {
				return nil, errors.Wrapf(ErrLocked, "%s", path)
			}
			return nil, errors.Wrapf(err, "failed to lock %s", path)
		}
		same, err := stillLinked(file, path)
		if err != nil {
			file.Close()
			return nil, err
		}
		if same {
			return &FileLock{path: path, file: file}, nil
		}
		// the holder unlinked this file while releasing it, the lock guards nothing
		file.Close()
	}
	return nil, errors.Wrapf(ErrLocked, "%s kept changing", path)
}

// stillLinked reports whether path still names the open file.
func stillLinked(file *os.File, path string) (bool, error) {
	var held, named unix.Stat_t
	if err := unix.Fstat(int(file.Fd()), &held); err != nil {
		return false, errors.Wrapf(err, "failed to stat lock file %s", path)
	}
	if err := unix.Stat(path, &named); err != nil {
		if errors.Is(err, unix.ENOENT) {
			return false, nil
		}
		return false, errors.Wrapf(err, "failed to stat lock file %s", path)
	}
	return held.Dev == named.Dev && held.Ino == named.Ino, nil
}

// Release removes the lock file and then drops the lock. A process that opened the file before
// the removal finds it unlinked once it gets the lock and starts over.
func (fl *FileLock) Release() error {
	if fl == nil || fl.file == nil {
		return nil
	}
	err := os.Remove(fl.path)
	if os.IsNotExist(err) {
		err = nil
	}
	err = errors.CombineErrors(err, unix.Flock(int(fl.file.Fd()), unix.LOCK_UN))
	err = errors.CombineErrors(err, fl.file.Close())
	fl.file = nil
	if err != nil {
		return errors.Wrapf(err, "failed to release lock %s", fl.path)
	}
	return nil
}
