package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	executor "ValuePool/query_executor"
	codegen "ValuePool/query_parser/code-generator"
	"ValuePool/query_parser/parser"
	storageengine "ValuePool/storage_engine"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

func main() {
	path := flag.String("path", "pools/default", "base path of the pool files")
	autoCommit := flag.Bool("autocommit", false, "prepare and commit after every mutating command")
	limit := flag.Int("limit", 50, "maximum nodes printed per scan, 0 prints all")
	cacheSize := flag.Int("cache", storageengine.DefaultCacheSize, "entries per lookup cache")
	debug := flag.Bool("debug", false, "log storage engine activity and print bytecode")
	flag.Parse()

	logger := zap.NewNop()
	if *debug {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			fmt.Fprintf(os.Stderr, "logger: %v\n", err)
			os.Exit(1)
		}
	}
	defer logger.Sync()
	log := logger.Sugar()

	cfg := storageengine.DefaultConfig()
	cfg.Logger = log
	cfg.CacheSize = *cacheSize
	cfg.FilterCapacity = 1 << 16
	pool, err := storageengine.Open(*path, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open %s: %v\n", *path, err)
		os.Exit(1)
	}
	defer func() {
		if err := pool.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "close: %v\n", err)
		}
	}()

	if err := resume(pool); err != nil {
		fmt.Fprintf(os.Stderr, "recover %s: %+v\n", *path, err)
		return
	}

	vm := executor.NewVM(pool, executor.Options{
		Out:        os.Stdout,
		Logger:     log,
		AutoCommit: *autoCommit,
		ScanLimit:  *limit,
	})
	defer vm.Close()

	scanner := bufio.NewScanner(os.Stdin)
	// REPL
	for {
		fmt.Print("pool> ")

		if !scanner.Scan() { // Ctrl+D pressed
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(line, "exit") {
			break
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		stmt, err := parser.Parse(line)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		instructions, err := codegen.EmitBytecode(stmt)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		if *debug {
			for i, instr := range instructions {
				fmt.Printf("%d: OP=%v, VALUE=%q\n", i, instr.Op, instr.Value)
			}
		}
		if err := vm.Execute(instructions); err != nil {
			fmt.Printf("Error: %v\n", err)
			if errors.Is(err, storageengine.ErrClosed) {
				break
			}
		}
	}
}

// resume picks up the newest recorded phase of an existing pool. A pool that was never
// cleared is left for the user to CLEAR.
func resume(pool *storageengine.ValuePool) error {
	if !pool.Initialized() {
		fmt.Printf("new pool at %s, run CLEAR <phase> to start\n", pool.Path())
		return nil
	}
	phases, err := pool.Recover()
	if err != nil {
		return err
	}
	if len(phases) == 0 {
		fmt.Printf("no committed phase recorded in %s, run CLEAR <phase> to start over\n", pool.Path())
		return nil
	}
	newest := phases[len(phases)-1]
	if err := pool.SelectPhase(newest); err != nil {
		return err
	}
	fmt.Printf("resumed %s at phase %d\n", pool.Path(), newest)
	return nil
}
