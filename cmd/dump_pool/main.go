// dump_pool prints every value of a pool in index order, one "node | value" line each.
// Run from repo root: go run ./cmd/dump_pool -path pools/demo -out cmd/pool_dump.txt
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	storageengine "ValuePool/storage_engine"
	"ValuePool/values"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
)

func main() {
	path := flag.String("path", "pools/demo", "base path of the pool files")
	outPath := flag.String("out", "", "output file, stdout when empty")
	flag.Parse()

	out := io.Writer(os.Stdout)
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "create output file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	w := bufio.NewWriter(out)
	err := dump(*path, w)
	if ferr := w.Flush(); err == nil {
		err = ferr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "dump: %+v\n", err)
		os.Exit(1)
	}
}

func dump(path string, w io.Writer) error {
	pool, err := storageengine.Open(path, storageengine.DefaultConfig())
	if err != nil {
		return err
	}
	defer pool.Close()

	phases, err := pool.Recover()
	if err != nil {
		return err
	}
	if len(phases) == 0 {
		return errors.Newf("no committed phase in %s", path)
	}
	if err := pool.SelectPhase(phases[len(phases)-1]); err != nil {
		return err
	}

	view, err := pool.NewReadOnlyView()
	if err != nil {
		return err
	}
	defer view.Close()

	cur, err := view.Scan(nil, false, nil, false)
	if err != nil {
		return err
	}
	defer cur.Close()

	var count int64
	for cur.Next() {
		v, err := view.FindValue(cur.Node())
		if err != nil {
			return errors.Wrapf(err, "node %d", cur.Node())
		}
		fmt.Fprintf(w, "%d | %s\n", cur.Node(), values.Format(v))
		count++
	}
	if err := cur.Err(); err != nil {
		return err
	}
	fmt.Fprintf(w, "# %s values at phase %d\n", humanize.Comma(count), view.Phase())
	return nil
}
