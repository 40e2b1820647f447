package catalog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileNamesAreStable(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "pool")
	c, err := NewCatalog(base)
	require.NoError(t, err)

	assert.Equal(t, base+".sp", c.MetarootFile().Path)
	assert.Equal(t, base+".sp_avl", c.AVLFile().Path)
	assert.Equal(t, base+".sp_nd", c.NodeFile().Path)
	assert.Equal(t, base+".sp_07", c.BlockFile(7).Path)
	assert.Equal(t, base+".sp_19", c.BlockFile(19).Path)
	assert.Equal(t, base+".sp_fl1", c.FreeListFile(1).Path)
	assert.Equal(t, "pool.sp_ndj", c.JournalFile().Name)

	again, err := NewCatalog(base)
	require.NoError(t, err)
	assert.Equal(t, c.BlockFile(3), again.BlockFile(3))

	ids := map[uint32]bool{c.MetarootFile().FileID: true, c.AVLFile().FileID: true, c.NodeFile().FileID: true}
	for class := 0; class < 20; class++ {
		id := c.BlockFile(class).FileID
		assert.False(t, ids[id], "file id %d reused", id)
		ids[id] = true
	}
	assert.False(t, c.Exists())

	_, err = NewCatalog("")
	assert.Error(t, err)
}
