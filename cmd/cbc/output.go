package main

import (
	"bufio"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/TrevorS/cbc"
)

// writeText prints one line per row: the row index, a tab, and its committee
// indices separated by commas, or "-" when the row joined none.
func writeText(w io.Writer, result *cbc.Result) error {
	bw := bufio.NewWriter(w)
	for r, a := range result.Assignments {
		bw.WriteString(strconv.Itoa(r))
		bw.WriteByte('\t')
		if len(a.Committees) == 0 {
			bw.WriteByte('-')
		} else {
			ids := make([]string, len(a.Committees))
			for i, c := range a.Committees {
				ids[i] = strconv.Itoa(c)
			}
			bw.WriteString(strings.Join(ids, ","))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

type jsonCommittee struct {
	Index   int     `json:"index"`
	Origin  int     `json:"origin"`
	Round   int     `json:"round"`
	Score   float64 `json:"score"`
	Members []int   `json:"members"`
}

type jsonRound struct {
	Round      int     `json:"round"`
	Rows       int     `json:"rows"`
	Candidates int     `json:"candidates"`
	Accepted   int     `json:"accepted"`
	Residual   int     `json:"residual"`
	BestScore  float64 `json:"best_score"`
}

type jsonResult struct {
	Committees  []jsonCommittee `json:"committees"`
	Assignments [][]int         `json:"assignments"`
	Rounds      []jsonRound     `json:"rounds"`
	Residual    []int           `json:"residual"`
}

// writeJSON prints the result as a single indented JSON document.
func writeJSON(w io.Writer, result *cbc.Result) error {
	out := jsonResult{
		Committees:  make([]jsonCommittee, len(result.Committees)),
		Assignments: make([][]int, len(result.Assignments)),
		Rounds:      make([]jsonRound, len(result.Rounds)),
		Residual:    result.Residual,
	}
	if out.Residual == nil {
		out.Residual = []int{}
	}
	for i, c := range result.Committees {
		out.Committees[i] = jsonCommittee{
			Index:   c.Index,
			Origin:  c.Origin,
			Round:   c.Round,
			Score:   c.Score,
			Members: c.Members,
		}
	}
	for i, a := range result.Assignments {
		out.Assignments[i] = a.Committees
		if out.Assignments[i] == nil {
			out.Assignments[i] = []int{}
		}
	}
	for i, r := range result.Rounds {
		out.Rounds[i] = jsonRound(r)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
