package xlchunk

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// RowFilter decides whether a row is materialized during a load pass.
// Rows are 1-based. Column and sheet are not part of the decision.
type RowFilter interface {
	ShouldInclude(row int) bool
}

// Bounded is implemented by filters that never accept a row past LastRow
// (the header row aside). Streaming sources use it to stop reading early.
type Bounded interface {
	LastRow() int
}

// HeadersOnly accepts the header row only.
type HeadersOnly struct{}

func (HeadersOnly) ShouldInclude(row int) bool { return row == 1 }
func (HeadersOnly) LastRow() int               { return 1 }

// ChunkWindow accepts the header row and every row in [start, start+size].
// Both ends are inclusive, so a window covers size+1 data rows; callers that
// want exactly size rows discard the last one.
type ChunkWindow struct {
	start int
	end   int
}

// NewChunkWindow creates a ChunkWindow starting at row start.
func NewChunkWindow(start, size int) *ChunkWindow {
	w := &ChunkWindow{}
	w.SetWindow(start, size)
	return w
}

// SetWindow moves the window in place. The reader keeps a single ChunkWindow
// for its lifetime and repositions it before every load pass.
func (w *ChunkWindow) SetWindow(start, size int) {
	w.start = start
	w.end = start + size
}

// Start returns the first row of the window.
func (w *ChunkWindow) Start() int { return w.start }

// LastRow returns the last row of the window (inclusive).
func (w *ChunkWindow) LastRow() int { return w.end }

func (w *ChunkWindow) ShouldInclude(row int) bool {
	return row == 1 || (row >= w.start && row <= w.end)
}

// ExprFilter accepts rows for which a boolean expression holds. The expression
// sees a single variable, row, holding the 1-based row index:
//
//	row % 2 == 0
//	row >= 100 && row < 200
//
// The header row is always accepted.
type ExprFilter struct {
	source  string
	program *vm.Program
}

type exprEnv struct {
	Row int `expr:"row"`
}

// NewExprFilter compiles expression into a filter.
func NewExprFilter(expression string) (*ExprFilter, error) {
	program, err := expr.Compile(expression, expr.Env(exprEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile row filter %q: %w", expression, err)
	}
	return &ExprFilter{source: expression, program: program}, nil
}

// String returns the source expression.
func (f *ExprFilter) String() string { return f.source }

func (f *ExprFilter) ShouldInclude(row int) bool {
	if row == 1 {
		return true
	}
	out, err := expr.Run(f.program, exprEnv{Row: row})
	if err != nil {
		return false
	}
	ok, _ := out.(bool)
	return ok
}
