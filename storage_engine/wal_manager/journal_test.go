package wal_manager

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pool.sp_ndj")
	j, err := OpenJournal(path, nil)
	require.NoError(t, err)
	defer j.Close()

	_, _, ok, err := j.Read()
	require.NoError(t, err)
	assert.False(t, ok, "empty journal")

	images := []BeforeImage{
		{Node: 11, Record: bytes.Repeat([]byte{1}, 80)},
		{Node: 12, Record: make([]byte, 80)},
	}
	require.NoError(t, j.Write(7, images))

	phase, got, ok, err := j.Read()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(7), phase)
	assert.Equal(t, images, got)

	// a second write replaces the first
	require.NoError(t, j.Write(8, nil))
	phase, got, ok, err = j.Read()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(8), phase)
	assert.Empty(t, got)

	require.NoError(t, j.Reset())
	_, _, ok, err = j.Read()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTornJournalIsIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pool.sp_ndj")
	j, err := OpenJournal(path, nil)
	require.NoError(t, err)
	require.NoError(t, j.Write(3, []BeforeImage{{Node: 5, Record: make([]byte, 80)}}))
	require.NoError(t, j.Close())

	// chop the end record off
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, info.Size()-4))

	j, err = OpenJournal(path, nil)
	require.NoError(t, err)
	defer j.Close()
	_, _, ok, err := j.Read()
	require.NoError(t, err)
	assert.False(t, ok)
}
