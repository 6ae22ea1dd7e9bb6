package store

import (
	"fmt"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

// ReportRow is the detail recorded for each match in the parquet report.
type ReportRow struct {
	TxID         string `parquet:"name=txid, type=BYTE_ARRAY, convertedtype=UTF8"`
	Height       int64  `parquet:"name=height, type=INT64"`
	Index        int32  `parquet:"name=index, type=INT32"`
	Inputs       int32  `parquet:"name=inputs, type=INT32"`
	Outputs      int32  `parquet:"name=outputs, type=INT32"`
	EqualOutputs int32  `parquet:"name=equal_outputs, type=INT32"`
	Amount       int64  `parquet:"name=amount, type=INT64"`
	VSize        int32  `parquet:"name=vsize, type=INT32"`
	Version      int64  `parquet:"name=version, type=INT64"`
	LockTime     int64  `parquet:"name=locktime, type=INT64"`
}

// ReportWriter writes match details to a parquet file.
type ReportWriter struct {
	file source.ParquetFile
	pw   *writer.ParquetWriter
	rows int
}

// NewReportWriter creates or replaces the parquet file at path.
func NewReportWriter(path string) (*ReportWriter, error) {
	file, err := local.NewLocalFileWriter(path)
	if err != nil {
		return nil, fmt.Errorf("create report %s: %w", path, err)
	}

	pw, err := writer.NewParquetWriter(file, new(ReportRow), 1)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("report schema: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	return &ReportWriter{file: file, pw: pw}, nil
}

func (w *ReportWriter) Write(row ReportRow) error {
	if err := w.pw.Write(row); err != nil {
		return fmt.Errorf("write report row: %w", err)
	}
	w.rows++
	return nil
}

// Rows returns the number of rows written so far.
func (w *ReportWriter) Rows() int {
	return w.rows
}

// Close flushes the footer and closes the file.
func (w *ReportWriter) Close() error {
	if err := w.pw.WriteStop(); err != nil {
		w.file.Close()
		return fmt.Errorf("finish report: %w", err)
	}
	return w.file.Close()
}
