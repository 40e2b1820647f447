package wal_manager

import (
	"os"
	"sync"

	"go.uber.org/zap"
)

const (
	RecordHeaderSize = 16 // seq(8) + length(4) + crc(4)

	kindBegin byte = 1
	kindImage byte = 2
	kindEnd   byte = 3
)

// WALSegment is the single append only file backing the journal.
type WALSegment struct {
	FilePath string
	File     *os.File
	Size     int64
	mu       sync.Mutex
}

// WALRecord is one framed journal entry.
type WALRecord struct {
	Seq  uint64
	CRC  uint32
	Data []byte
}

// BeforeImage is the content a node table record had when the last commit was made.
type BeforeImage struct {
	Node   int64
	Record []byte
}

// Journal holds the before images of the node table records a prepare is about to overwrite.
type Journal struct {
	segment *WALSegment
	log     *zap.SugaredLogger
}
