// Package scan walks a range of blocks and collects the transactions that
// look like JoinMarket CoinJoins.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/btcsuite/btclog/v2"

	"jmfinder/chain"
	"jmfinder/coinjoin"
	"jmfinder/node"
	"jmfinder/store"
)

// Subsystem is the logging tag scanners are expected to log under.
const Subsystem = "SCAN"

// Config holds the dependencies of a Scanner.
type Config struct {
	// Source provides chain state and raw blocks.
	Source node.Source

	// Log receives progress and match events. Defaults to disabled.
	Log btclog.Logger

	// CandidatesFile is merged with the results of a successful run.
	CandidatesFile string

	// ReportFile, if set, receives a parquet row per match of the run.
	ReportFile string
}

// Result is one classified transaction together with the details logged and
// reported for it.
type Result struct {
	TxID     string
	Height   int64
	Index    int
	Inputs   int
	Outputs  int
	VSize    int
	Version  uint32
	LockTime uint32
	Match    coinjoin.Match
}

func (r Result) Candidate() store.Candidate {
	return store.Candidate{TxID: r.TxID, Height: r.Height, Index: r.Index}
}

func (r Result) ReportRow() store.ReportRow {
	return store.ReportRow{
		TxID:         r.TxID,
		Height:       r.Height,
		Index:        int32(r.Index),
		Inputs:       int32(r.Inputs),
		Outputs:      int32(r.Outputs),
		EqualOutputs: int32(r.Match.EqualOutputs),
		Amount:       int64(r.Match.Amount),
		VSize:        int32(r.VSize),
		Version:      int64(r.Version),
		LockTime:     int64(r.LockTime),
	}
}

// Summary describes a completed run.
type Summary struct {
	Range        Range
	Transactions int
	Results      []Result

	// Stored is the number of candidates in the store after merging.
	Stored  int
	Elapsed time.Duration
}

// Scanner fetches blocks one at a time and classifies every transaction in
// them. It is not safe for concurrent use.
type Scanner struct {
	cfg Config
	log btclog.Logger
}

func New(cfg Config) *Scanner {
	logger := cfg.Log
	if logger == nil {
		logger = btclog.Disabled
	}
	return &Scanner{cfg: cfg, log: logger}
}

// Run scans the requested heights (see ResolveRange), then merges the matches
// into the candidates file and writes the report. Nothing is written unless
// every block in the range was fully decoded.
func (s *Scanner) Run(ctx context.Context, start, end int64) (*Summary,
	error) {

	info, err := s.cfg.Source.ChainInfo(ctx)
	if err != nil {
		return nil, err
	}

	r, err := ResolveRange(info, start, end)
	if err != nil {
		return nil, err
	}

	summary, err := s.Scan(ctx, r)
	if err != nil {
		return nil, err
	}

	candidates := make([]store.Candidate, len(summary.Results))
	for i, res := range summary.Results {
		candidates[i] = res.Candidate()
	}

	if s.cfg.CandidatesFile != "" {
		merged, err := store.MergeFile(s.cfg.CandidatesFile, candidates)
		if err != nil {
			return nil, err
		}
		summary.Stored = len(merged)

		s.log.InfoS(ctx, "Candidates written",
			slog.String("file", s.cfg.CandidatesFile),
			slog.Int("new", len(candidates)),
			slog.Int("total", summary.Stored))
	}

	if s.cfg.ReportFile != "" {
		if err := s.writeReport(summary.Results); err != nil {
			return nil, err
		}
	}

	return summary, nil
}

func (s *Scanner) writeReport(results []Result) error {
	w, err := store.NewReportWriter(s.cfg.ReportFile)
	if err != nil {
		return err
	}
	for _, res := range results {
		if err := w.Write(res.ReportRow()); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}

// Scan fetches and classifies every block in r in height order. The first
// transport or decode failure aborts the scan.
func (s *Scanner) Scan(ctx context.Context, r Range) (*Summary, error) {
	s.log.InfoS(ctx, "Scanning blocks", slog.Int64("start", r.Start),
		slog.Int64("end", r.End))

	startTime := time.Now()
	summary := &Summary{Range: r}

	for height := r.Start; height <= r.End; height++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		hash, err := s.cfg.Source.BlockHash(ctx, height)
		if err != nil {
			return nil, err
		}

		raw, err := s.cfg.Source.RawBlock(ctx, hash)
		if err != nil {
			return nil, err
		}

		results, numTxs, err := s.ScanBlock(ctx, height, hash, raw)
		if err != nil {
			return nil, err
		}

		summary.Transactions += numTxs
		summary.Results = append(summary.Results, results...)

		s.log.InfoS(ctx, "Processed block", slog.Int64("height", height),
			slog.Int("txs", numTxs), slog.Int("matches", len(results)))
	}

	summary.Elapsed = time.Since(startTime)
	s.log.InfoS(ctx, "Scan completed",
		slog.Int64("blocks", r.Len()),
		slog.Int("txs", summary.Transactions),
		slog.Int("matches", len(summary.Results)),
		slog.Duration("elapsed", summary.Elapsed))

	return summary, nil
}

// ScanBlock decodes every transaction of a raw block and returns the matches
// and the number of transactions decoded. A block that cannot be decoded in
// full yields an IncompleteBlockError.
func (s *Scanner) ScanBlock(ctx context.Context, height int64, hash string,
	raw []byte) ([]Result, int, error) {

	prefix, err := chain.DecodeBlockPrefix(raw)
	if err != nil {
		return nil, 0, &IncompleteBlockError{
			Height: height,
			Hash:   hash,
			Err:    err,
		}
	}

	var (
		results []Result
		offset  = prefix.Offset
	)
	for i := 0; i < prefix.TxCount; i++ {
		tx, next, err := chain.DecodeTx(raw, offset)
		if err != nil {
			return nil, i, &IncompleteBlockError{
				Height:   height,
				Hash:     hash,
				Declared: prefix.TxCount,
				Decoded:  i,
				Err:      fmt.Errorf("transaction %d: %w", i, err),
			}
		}
		offset = next

		match := coinjoin.IsJoinMarket(
			len(tx.Inputs), len(tx.Outputs), tx.Values(),
		)
		if !match.IsMatch() {
			continue
		}

		res := Result{
			TxID:     tx.TxID().String(),
			Height:   height,
			Index:    i,
			Inputs:   len(tx.Inputs),
			Outputs:  len(tx.Outputs),
			VSize:    tx.VirtualSize(),
			Version:  tx.Version,
			LockTime: tx.LockTime,
			Match:    match,
		}
		results = append(results, res)

		s.log.InfoS(ctx, "Found possible JoinMarket CoinJoin",
			slog.String("txid", res.TxID),
			slog.Int64("height", height),
			slog.Int("index", i),
			slog.Int("inputs", res.Inputs),
			slog.Int("outputs", res.Outputs),
			slog.Int("equal_outputs", match.EqualOutputs),
			slog.Uint64("amount", match.Amount),
			slog.Int("vsize", res.VSize),
			slog.Any("version", res.Version),
			slog.Any("locktime", res.LockTime))
	}

	if offset != len(raw) {
		return nil, prefix.TxCount, &IncompleteBlockError{
			Height:   height,
			Hash:     hash,
			Declared: prefix.TxCount,
			Decoded:  prefix.TxCount,
			Err: fmt.Errorf("%w: %d bytes", ErrTrailingBytes,
				len(raw)-offset),
		}
	}

	s.log.DebugS(ctx, "Decoded block", slog.Int64("height", height),
		slog.String("hash", hash), slog.Int("size", len(raw)),
		slog.Time("time", prefix.Header.Timestamp))

	return results, prefix.TxCount, nil
}
