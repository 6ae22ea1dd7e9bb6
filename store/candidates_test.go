package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCandidate(t *testing.T) {
	c, err := ParseCandidate("abc123,700000,4")
	require.NoError(t, err)
	require.Equal(t, Candidate{TxID: "abc123", Height: 700000, Index: 4}, c)
	require.Equal(t, "abc123,700000,4", c.String())

	for _, line := range []string{
		"abc123", "abc123,700000", ",1,2", "abc,x,1", "abc,1,y",
		"abc,1,2,3",
	} {
		_, err := ParseCandidate(line)
		require.Error(t, err, line)
	}
}

func TestMerge(t *testing.T) {
	stored := []Candidate{
		{TxID: "abc123", Height: 700000, Index: 4},
		{TxID: "def456", Height: 699999, Index: 0},
	}
	found := []Candidate{{TxID: "abc123", Height: 700000, Index: 4}}

	want := []Candidate{
		{TxID: "def456", Height: 699999, Index: 0},
		{TxID: "abc123", Height: 700000, Index: 4},
	}

	merged := Merge(stored, found)
	require.Equal(t, want, merged)

	for i := 0; i < 3; i++ {
		merged = Merge(merged, found)
		require.Equal(t, want, merged)
	}
}

func TestMergeOrdersNumerically(t *testing.T) {
	merged := Merge([]Candidate{
		{TxID: "c", Height: 100000, Index: 2},
		{TxID: "b", Height: 99999, Index: 0},
		{TxID: "a", Height: 100000, Index: 1},
	})

	require.Equal(t, []Candidate{
		{TxID: "b", Height: 99999, Index: 0},
		{TxID: "a", Height: 100000, Index: 1},
		{TxID: "c", Height: 100000, Index: 2},
	}, merged)
}

func TestMergeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candidates.txt")
	require.NoError(t, os.WriteFile(path,
		[]byte("abc123,700000,4\ndef456,699999,0"), 0644))

	found := []Candidate{{TxID: "abc123", Height: 700000, Index: 4}}

	for i := 0; i < 3; i++ {
		merged, err := MergeFile(path, found)
		require.NoError(t, err)
		require.Len(t, merged, 2)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, "def456,699999,0\nabc123,700000,4",
			string(content))
	}
}

func TestMergeFileCreates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candidates.txt")

	merged, err := MergeFile(path, []Candidate{
		{TxID: "b", Height: 2, Index: 1},
		{TxID: "a", Height: 1, Index: 7},
	})
	require.NoError(t, err)
	require.Len(t, merged, 2)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "a,1,7\nb,2,1", string(content))

	// A run with nothing found leaves the file as it was.
	_, err = MergeFile(path, nil)
	require.NoError(t, err)
	again, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, content, again)
}

func TestMergeFileShrinks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candidates.txt")

	// Duplicates and blank lines collapse, so the rewrite is shorter than
	// what was read.
	dup := strings.Repeat("abc,1,1\n\n", 5)
	require.NoError(t, os.WriteFile(path, []byte(dup), 0644))

	_, err := MergeFile(path, nil)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "abc,1,1", string(content))
}

func TestMergeFileRejectsCorruptStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candidates.txt")
	require.NoError(t, os.WriteFile(path, []byte("abc,1,1\ngarbage"), 0644))

	_, err := MergeFile(path, []Candidate{{TxID: "x", Height: 3}})
	require.ErrorContains(t, err, "line 2")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "abc,1,1\ngarbage", string(content))

	// The failed merge released the file; a repaired store merges cleanly.
	require.NoError(t, os.WriteFile(path, []byte("abc,1,1\n"), 0644))
	merged, err := MergeFile(path, []Candidate{{TxID: "x", Height: 3}})
	require.NoError(t, err)
	require.Len(t, merged, 2)
}
