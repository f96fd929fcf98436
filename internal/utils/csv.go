package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"ohlcKit/internal/domain"
	"ohlcKit/internal/frame"
	"ohlcKit/internal/ports"
)

const dateLayout = "2006-01-02"

// frameHeader is the first CSV record of a frame file: the index column then the price columns.
var frameHeader = []string{"date", frame.ColumnOpen, frame.ColumnHigh, frame.ColumnLow, frame.ColumnClose}

// WriteFrameCSV writes f with one row per index entry. Prices use their
// shortest exact decimal form (100, 100.5).
func WriteFrameCSV(w io.Writer, f *frame.Frame) error {
	if err := f.CheckLengths(); err != nil {
		return err
	}
	writer := csv.NewWriter(w)

	if err := writer.Write(frameHeader); err != nil {
		return err
	}
	for i := 0; i < f.Len(); i++ {
		err := writer.Write([]string{
			f.Index[i].UTC().Format(dateLayout),
			formatPrice(f.Open[i]),
			formatPrice(f.High[i]),
			formatPrice(f.Low[i]),
			formatPrice(f.Close[i]),
		})
		if err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadFrameCSV parses the output of WriteFrameCSV.
func ReadFrameCSV(r io.Reader) (*frame.Frame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(frameHeader)

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty csv: %w", ports.ErrMalformedData)
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w: %w", ports.ErrMalformedData, err)
	}
	for i, name := range frameHeader {
		if header[i] != name {
			return nil, fmt.Errorf("unexpected column %q at position %d, want %q: %w", header[i], i, name, ports.ErrMalformedData)
		}
	}

	f := &frame.Frame{}
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: %w", line, ports.ErrMalformedData, err)
		}

		ts, err := time.Parse(dateLayout, rec[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid date %q: %w", line, rec[0], ports.ErrMalformedData)
		}
		var prices [4]float64
		for j := range prices {
			d, err := decimal.NewFromString(rec[j+1])
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid %s %q: %w", line, frameHeader[j+1], rec[j+1], ports.ErrMalformedData)
			}
			prices[j] = d.InexactFloat64()
		}

		f.Index = append(f.Index, ts)
		f.Open = append(f.Open, prices[0])
		f.High = append(f.High, prices[1])
		f.Low = append(f.Low, prices[2])
		f.Close = append(f.Close, prices[3])
	}
	return f, nil
}

// WriteFrameCSVFile writes f to filename, creating or truncating it.
func WriteFrameCSVFile(f *frame.Frame, filename string) error {
	if err := f.CheckLengths(); err != nil {
		return err
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := WriteFrameCSV(file, f); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func formatPrice(v float64) string {
	return decimal.NewFromFloat(v).String()
}

var klineHeader = []string{"open_time", "close_time", "symbol", "interval", "open", "high", "low", "close", "volume"}

// WriteKlinesCSV writes one record per kline with RFC 3339 times.
func WriteKlinesCSV(w io.Writer, klines []*domain.Kline) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(klineHeader); err != nil {
		return err
	}
	for i, k := range klines {
		if k == nil {
			return fmt.Errorf("kline %d is nil: %w", i, ports.ErrInvalidRequest)
		}
		err := writer.Write([]string{
			k.OpenTime.Format(time.RFC3339),
			k.CloseTime.Format(time.RFC3339),
			k.Symbol,
			k.Interval,
			formatPrice(k.Open),
			formatPrice(k.High),
			formatPrice(k.Low),
			formatPrice(k.Close),
			strconv.FormatFloat(k.Volume, 'f', -1, 64),
		})
		if err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteKlinesToCSV writes klines to filename, creating or truncating it.
func WriteKlinesToCSV(klines []*domain.Kline, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := WriteKlinesCSV(file, klines); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
