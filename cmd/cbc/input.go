package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/TrevorS/cbc"
)

// maxLineSize bounds a single input row.
const maxLineSize = 16 << 20

// parseRows reads one row per line. Each line holds whitespace-separated
// feature:weight tokens where feature is a non-negative integer; a blank line
// is an empty row. The column count is one past the largest feature seen.
func parseRows(r io.Reader) (*cbc.SparseMatrix, error) {
	type pending struct {
		indices []int
		values  []float64
	}
	var rows []pending
	columns := 0

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for line := 1; sc.Scan(); line++ {
		var cur pending
		for _, tok := range strings.Fields(sc.Text()) {
			f, w, err := parseToken(tok)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			cur.indices = append(cur.indices, f)
			cur.values = append(cur.values, w)
			columns = max(columns, f+1)
		}
		rows = append(rows, cur)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	vectors := make([]cbc.SparseVector, len(rows))
	for i, p := range rows {
		v, err := cbc.SparseVectorFromPairs(columns, p.indices, p.values)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		vectors[i] = v
	}
	return cbc.NewSparseMatrix(columns, vectors)
}

func parseToken(tok string) (int, float64, error) {
	name, weight, ok := strings.Cut(tok, ":")
	if !ok {
		return 0, 0, fmt.Errorf("token %q is not feature:weight", tok)
	}
	f, err := strconv.Atoi(name)
	if err != nil || f < 0 {
		return 0, 0, fmt.Errorf("token %q: feature must be a non-negative integer", tok)
	}
	w, err := strconv.ParseFloat(weight, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("token %q: %w", tok, err)
	}
	return f, w, nil
}
