package executor

import (
	"fmt"
	"strconv"
	"strings"

	storageengine "ValuePool/storage_engine"

	"github.com/dustin/go-humanize"
)

func (vm *VM) PrintLine(cells []string) {
	for i, cell := range cells {
		fmt.Fprintf(vm.out, "%-20s", cell)
		if i < len(cells)-1 {
			fmt.Fprint(vm.out, "| ")
		}
	}
	fmt.Fprintln(vm.out)
}

func (vm *VM) PrintSeparator(count int) {
	if count > 0 {
		fmt.Fprintln(vm.out, strings.Repeat("-", (22*count)-2))
	}
}

func (vm *VM) printf(format string, args ...any) {
	fmt.Fprintf(vm.out, format, args...)
}

func strconvNode(node int64) string {
	return strconv.FormatInt(node, 10)
}

// PrintStats prints pool counters in a two column table.
func (vm *VM) PrintStats(st storageengine.PoolStats) {
	committed := "none"
	if st.HasCommitted {
		committed = strconv.FormatUint(uint64(st.CommittedPhase), 10)
	}
	var blocks, free int64
	for class, pages := range st.BlockPages {
		blocks += pages - 1
		free += int64(st.BlockFreePages[class])
	}

	rows := [][]string{
		{"state", st.State},
		{"committed phase", committed},
		{"dirty", strconv.FormatBool(st.Dirty)},
		{"values", humanize.Comma(st.IndexEntries)},
		{"index pages", fmt.Sprintf("%s (%s free)", humanize.Comma(st.IndexPages-1), humanize.Comma(int64(st.IndexFreePages)))},
		{"overflow blocks", fmt.Sprintf("%s (%s free)", humanize.Comma(blocks), humanize.Comma(free))},
		{"node capacity", humanize.Comma(st.NodeCapacity)},
		{"staged records", humanize.Comma(int64(st.StagedRecords))},
		{"live phases", strconv.Itoa(st.LivePhases)},
		{"disk", humanize.IBytes(uint64(max(st.DiskBytes, 0)))},
		{"value cache", fmt.Sprintf("%d hits / %d misses", st.Cache.ValueHits, st.Cache.ValueMisses)},
		{"node cache", fmt.Sprintf("%d hits / %d misses", st.Cache.NodeHits, st.Cache.NodeMisses)},
		{"page pool", fmt.Sprintf("%d/%d pages, %.0f%% hits", st.BufferPool.TotalPages, st.BufferPool.Capacity, st.BufferPool.HitRate*100)},
	}
	for _, row := range rows {
		vm.PrintLine(row)
	}
}
