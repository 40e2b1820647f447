package page

import (
	"ValuePool/types"
	"sync"
)

/*
This contains the page frame shared by the disk manager and the buffer pool.
Pages of different files have different sizes (an AVL node page is a few dozen bytes, an overflow
block can be megabytes), so the size travels with the frame instead of being a package constant.

PinCount is the reference count of the frame. A pinned frame is never evicted or reused, this is
what keeps a tree node readable for every snapshot that handed it out.
*/

type Page struct {
	ID       int64 // global id: fileID<<32 | local page number
	FileID   uint32
	Data     []byte
	IsDirty  bool
	PinCount int32
	PageType types.PageType
	mu       sync.RWMutex
}

func New(id int64, fileID uint32, size int, pageType types.PageType) *Page {
	return &Page{
		ID:       id,
		FileID:   fileID,
		Data:     make([]byte, size),
		PageType: pageType,
	}
}

// GlobalID combines a file id and a page number local to that file.
func GlobalID(fileID uint32, local int64) int64 {
	return int64(fileID)<<32 | local
}

// LocalID strips the file id from a global page id.
func LocalID(global int64) int64 {
	return global & 0xFFFFFFFF
}

func (p *Page) Lock() {
	p.mu.Lock()
}

func (p *Page) Unlock() {
	p.mu.Unlock()
}

func (p *Page) RLock() {
	p.mu.RLock()
}

func (p *Page) RUnlock() {
	p.mu.RUnlock()
}
