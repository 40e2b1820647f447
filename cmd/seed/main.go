// Seed program: clears a pool and fills it with values, committing one phase per batch.
// Values come from a file of terms in REPL syntax, one per line, or are generated.
// Run: go run ./cmd/seed -path pools/demo -n 10000
// Or:  go run ./cmd/seed -path pools/demo -in terms.txt
// Then inspect: go run ./cmd/inspect_pool -path pools/demo
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	executor "ValuePool/query_executor"
	codegen "ValuePool/query_parser/code-generator"
	"ValuePool/query_parser/parser"
	storageengine "ValuePool/storage_engine"
	"ValuePool/types"
	"ValuePool/values"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

func main() {
	path := flag.String("path", "pools/demo", "base path of the pool files")
	in := flag.String("in", "", "file of terms to load, one per line")
	n := flag.Int("n", 10000, "number of values to generate when -in is not given")
	batch := flag.Int("batch", 1000, "values per committed phase")
	verbose := flag.Bool("v", false, "log storage engine activity")
	flag.Parse()

	log := zap.NewNop().Sugar()
	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		log = logger.Sugar()
	}

	var err error
	if *in != "" {
		err = load(*path, *in, max(*batch, 1), log)
	} else {
		err = seed(*path, *n, max(*batch, 1), log)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed: %+v\n", err)
		os.Exit(1)
	}
}

func seed(path string, n, batch int, log *zap.SugaredLogger) error {
	cfg := storageengine.DefaultConfig()
	cfg.Logger = log
	cfg.FilterCapacity = uint(n)
	pool, err := storageengine.Open(path, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Clear(0); err != nil {
		return err
	}

	start := time.Now()
	for i := 0; i < n; i++ {
		if _, err := pool.FindOrCreateNode(generate(i)); err != nil {
			return errors.Wrapf(err, "value %d", i)
		}
		if (i+1)%batch == 0 || i == n-1 {
			if err := pool.Prepare(); err != nil {
				return err
			}
			if err := pool.Commit(); err != nil {
				return err
			}
		}
	}

	report(pool, path, start)
	return nil
}

// load interns every term of a file through the command pipeline, like the REPL would.
func load(path, in string, batch int, log *zap.SugaredLogger) error {
	f, err := os.Open(in)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", in)
	}
	defer f.Close()

	cfg := storageengine.DefaultConfig()
	cfg.Logger = log
	pool, err := storageengine.Open(path, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := pool.Clear(0); err != nil {
		return err
	}

	vm := executor.NewVM(pool, executor.Options{Out: io.Discard, Logger: log})
	defer vm.Close()
	run := func(cmd string) error {
		stmt, err := parser.Parse(cmd)
		if err != nil {
			return err
		}
		instructions, err := codegen.EmitBytecode(stmt)
		if err != nil {
			return err
		}
		return vm.Execute(instructions)
	}

	start := time.Now()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	pending := 0
	for line := 1; scanner.Scan(); line++ {
		term := strings.TrimSpace(scanner.Text())
		if term == "" || strings.HasPrefix(term, "#") {
			continue
		}
		if err := run("intern " + term); err != nil {
			return errors.Wrapf(err, "%s:%d", in, line)
		}
		pending++
		if pending == batch {
			if err := run("prepare"); err != nil {
				return err
			}
			if err := run("commit"); err != nil {
				return err
			}
			pending = 0
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "failed to read %s", in)
	}
	if pool.Dirty() {
		if err := pool.Prepare(); err != nil {
			return err
		}
		if err := pool.Commit(); err != nil {
			return err
		}
	}
	report(pool, path, start)
	return nil
}

func report(pool *storageengine.ValuePool, path string, start time.Time) {
	st := pool.Stats()
	fmt.Printf("Seeded %s values into %s in %s\n", humanize.Comma(st.IndexEntries), path, time.Since(start).Round(time.Millisecond))
	if st.HasCommitted {
		fmt.Printf("Committed phase %d, %s on disk\n", st.CommittedPhase, humanize.IBytes(uint64(st.DiskBytes)))
	}
}

// generate cycles through every value kind. Every tenth literal is long enough to spill into the
// overflow blocks.
func generate(i int) types.Value {
	switch i % 5 {
	case 0:
		return values.NewURI("http://example.org/resource/" + strconv.Itoa(i))
	case 1:
		text := "label " + strconv.Itoa(i)
		if i%10 == 1 {
			text += " " + strings.Repeat("x", 64+i%4096)
		}
		return values.NewLiteral(text)
	case 2:
		return values.NewLong(int64(i) * -7919)
	case 3:
		return values.NewString("name-" + strconv.Itoa(i))
	default:
		return values.NewDouble(float64(i) / 3)
	}
}
