package wal_manager

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
)

/*
The segment is the one file behind the node journal. Append only buffers in the OS, the journal
is durable once Sync returns. Every prepare starts the file over with Truncate.
*/

var ErrSegmentClosed = errors.New("segment not opened")

func InitializeWALSegment(filePath string) *WALSegment {
	return &WALSegment{FilePath: filePath}
}

// opens the segment file in append-only mode
func (ws *WALSegment) Open() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.File != nil {
		return nil
	}

	// O_APPEND ensures atomic appends at the OS level
	file, err := os.OpenFile(ws.FilePath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return errors.Wrapf(err, "failed to open segment %s", ws.FilePath)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return errors.Wrapf(err, "failed to stat segment %s", ws.FilePath)
	}

	ws.File = file
	ws.Size = stat.Size()
	return nil
}

// Append writes raw bytes at the end of the segment and returns bytes written.
func (ws *WALSegment) Append(data []byte) (int, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.File == nil {
		return 0, ErrSegmentClosed
	}

	n, err := ws.File.Write(data)
	if err != nil {
		return 0, errors.Wrap(err, "failed to append to segment")
	}

	ws.Size += int64(n)
	return n, nil
}

// Sync forces the OS buffer to disk.
func (ws *WALSegment) Sync() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.File == nil {
		return ErrSegmentClosed
	}

	return ws.File.Sync()
}

// Truncate discards the whole segment and syncs the empty file.
func (ws *WALSegment) Truncate() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.File == nil {
		return ErrSegmentClosed
	}
	if err := ws.File.Truncate(0); err != nil {
		return errors.Wrap(err, "failed to truncate segment")
	}
	ws.Size = 0
	return ws.File.Sync()
}

// ReadAll returns the current content of the segment.
func (ws *WALSegment) ReadAll() ([]byte, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.File == nil {
		return nil, ErrSegmentClosed
	}
	buf := make([]byte, ws.Size)
	n, err := ws.File.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to read segment")
	}
	return buf[:n], nil
}

// Close closes the segment file
func (ws *WALSegment) Close() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.File != nil {
		err := ws.File.Close()
		ws.File = nil
		return err
	}
	return nil
}
