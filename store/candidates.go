// Package store persists scan results.
package store

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Candidate identifies one classified transaction.
type Candidate struct {
	TxID   string
	Height int64
	Index  int
}

// String renders the candidate as a txid,height,index line.
func (c Candidate) String() string {
	return c.TxID + "," + strconv.FormatInt(c.Height, 10) + "," +
		strconv.Itoa(c.Index)
}

// ParseCandidate parses a txid,height,index line.
func ParseCandidate(line string) (Candidate, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 3 || fields[0] == "" {
		return Candidate{}, fmt.Errorf("invalid candidate %q", line)
	}

	height, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Candidate{}, fmt.Errorf("invalid height in %q: %w",
			line, err)
	}
	index, err := strconv.Atoi(fields[2])
	if err != nil {
		return Candidate{}, fmt.Errorf("invalid index in %q: %w",
			line, err)
	}

	return Candidate{TxID: fields[0], Height: height, Index: index}, nil
}

// ReadCandidates parses one candidate per line, skipping blank lines.
func ReadCandidates(r io.Reader) ([]Candidate, error) {
	var candidates []Candidate

	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		c, err := ParseCandidate(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		candidates = append(candidates, c)
	}

	return candidates, scanner.Err()
}

// Merge returns the union of the given candidates without duplicates, sorted
// by height, then by position in the block.
func Merge(sets ...[]Candidate) []Candidate {
	seen := make(map[Candidate]struct{})
	var merged []Candidate
	for _, set := range sets {
		for _, c := range set {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			merged = append(merged, c)
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if a.Height != b.Height {
			return a.Height < b.Height
		}
		if a.Index != b.Index {
			return a.Index < b.Index
		}
		return a.TxID < b.TxID
	})

	return merged
}

// WriteCandidates writes one candidate per line with no trailing newline.
func WriteCandidates(w io.Writer, candidates []Candidate) error {
	lines := make([]string, len(candidates))
	for i, c := range candidates {
		lines[i] = c.String()
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n"))
	return err
}

// MergeFile merges found into the candidates stored at path, creating the
// file if needed, and returns the merged set. The read and the rewrite
// happen on the same open file.
func MergeFile(path string, found []Candidate) ([]Candidate, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open candidates file: %w", err)
	}

	merged, err := rewrite(file, found)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("close %s: %w", path, err)
	}
	return merged, nil
}

// rewrite reads the candidates in file and replaces them with their union
// with found.
func rewrite(file *os.File, found []Candidate) ([]Candidate, error) {
	stored, err := ReadCandidates(file)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	merged := Merge(stored, found)

	var buf bytes.Buffer
	if err := WriteCandidates(&buf, merged); err != nil {
		return nil, err
	}

	if err := file.Truncate(0); err != nil {
		return nil, fmt.Errorf("truncate: %w", err)
	}
	if _, err := file.WriteAt(buf.Bytes(), 0); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	if err := file.Sync(); err != nil {
		return nil, fmt.Errorf("sync: %w", err)
	}

	return merged, nil
}
