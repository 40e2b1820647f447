package executor_test

import (
	"bytes"
	"path/filepath"
	"testing"

	executor "ValuePool/query_executor"
	codegen "ValuePool/query_parser/code-generator"
	"ValuePool/query_parser/parser"
	storageengine "ValuePool/storage_engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type session struct {
	t   *testing.T
	vm  *executor.VM
	out *bytes.Buffer
}

func newSession(t *testing.T, autoCommit bool) *session {
	t.Helper()
	cfg := storageengine.DefaultConfig()
	cfg.SyncWrites = false
	pool, err := storageengine.Open(filepath.Join(t.TempDir(), "pool"), cfg)
	require.NoError(t, err)
	out := &bytes.Buffer{}
	vm := executor.NewVM(pool, executor.Options{Out: out, AutoCommit: autoCommit, ScanLimit: 3})
	t.Cleanup(func() {
		vm.Close()
		pool.Close()
	})
	return &session{t: t, vm: vm, out: out}
}

// run executes one line and returns what it printed.
func (s *session) run(line string) (string, error) {
	s.t.Helper()
	s.out.Reset()
	stmt, err := parser.Parse(line)
	require.NoError(s.t, err, line)
	instructions, err := codegen.EmitBytecode(stmt)
	require.NoError(s.t, err, line)
	err = s.vm.Execute(instructions)
	return s.out.String(), err
}

func (s *session) must(line string) string {
	s.t.Helper()
	out, err := s.run(line)
	require.NoError(s.t, err, line)
	return out
}

func TestSessionPutFindScan(t *testing.T) {
	s := newSession(t, false)
	s.must("clear")
	assert.Contains(t, s.must(`put 11 "alpha"`), "11")
	s.must(`put 12 "bravo"`)
	s.must(`remove 11`)

	assert.Contains(t, s.must(`find "alpha"`), "not found")
	assert.Contains(t, s.must(`find "bravo"`), "12")
	assert.Contains(t, s.must(`value 12`), `"bravo"`)
	assert.Contains(t, s.must(`value 11`), "holds no value")

	for _, n := range []string{"1", "2", "3", "4", "5"} {
		s.must(`put "` + n + `"^^xsd:long`)
	}
	out := s.must(`scan ["2"^^xsd:long, "4"^^xsd:long]`)
	assert.Contains(t, out, "(3 nodes)")
	out = s.must(`scantype typed xsd:long`)
	assert.Contains(t, out, "... 2 more")

	_, err := s.run(`put 12 "again"`)
	assert.ErrorIs(t, err, storageengine.ErrAlreadyExists)
	_, err = s.run(`find "x"^^<http://example.org/unknown>`)
	assert.Error(t, err)
}

func TestSessionPhasesAndView(t *testing.T) {
	s := newSession(t, false)
	s.must("clear 0")

	_, err := s.run("view")
	assert.ErrorIs(t, err, storageengine.ErrProtocolViolation)
	_, err = s.run(`view find "alpha"`)
	assert.ErrorIs(t, err, executor.ErrNoView)

	s.must(`put 1 "alpha"`)
	s.must("prepare")
	s.must("commit")
	assert.Contains(t, s.must("view"), "phase 1")

	s.must(`put 2 "bravo"`)
	s.must("prepare")
	s.must("commit")
	assert.Contains(t, s.must(`view find "bravo"`), "not found")
	assert.Contains(t, s.must("refresh"), "phase 2")
	assert.Contains(t, s.must(`view find "bravo"`), "2")

	s.must(`put 3 "charlie"`)
	s.must("rollback")
	assert.Contains(t, s.must(`find "charlie"`), "not found")
	assert.Contains(t, s.must("check"), "ok")

	out := s.must("stats")
	assert.Contains(t, out, "committed phase")
	assert.Contains(t, out, "active")
}

func TestSessionAutoCommit(t *testing.T) {
	s := newSession(t, true)
	s.must("clear")
	s.must(`put "alpha"`)
	s.must(`intern "alpha"`)
	assert.Contains(t, s.must("stats"), "false")

	assert.Contains(t, s.must("view"), "phase 1")
	assert.Contains(t, s.must(`view scan *`), "(1 nodes)")

	_, err := s.run(`put 1 "beta"`)
	assert.ErrorIs(t, err, storageengine.ErrAlreadyExists)
	_, err = s.run("commit")
	assert.ErrorIs(t, err, storageengine.ErrProtocolViolation)
}
