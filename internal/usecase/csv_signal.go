package usecase

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"NeuroBand/internal/domain/models"
)

const parseOp = "parse csv"

// ParseCSV reads a `time,ch1,...,chN` table into a signal. Any malformed row fails the whole
// payload; nothing is returned partially.
func ParseCSV(r io.Reader, sampleRate float64) (*models.Signal, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // row widths are checked below with a better message
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, models.ParseErrorf(parseOp, "missing header row")
	}
	if err != nil {
		return nil, models.ParseError(parseOp, err)
	}
	if len(header) < 2 {
		return nil, models.ParseErrorf(parseOp, "header must have a time column and at least one channel, got %d columns", len(header))
	}

	channels := make([]string, len(header)-1)
	seen := make(map[string]struct{}, len(channels))
	for i, h := range header[1:] {
		name := strings.TrimSpace(h)
		if name == "" {
			return nil, models.ParseErrorf(parseOp, "header column %d is empty", i+2)
		}
		if _, dup := seen[name]; dup {
			return nil, models.ParseErrorf(parseOp, "duplicate channel %q in header", name)
		}
		seen[name] = struct{}{}
		channels[i] = name
	}

	sig := &models.Signal{
		Channels:   channels,
		Data:       make([][]float64, len(channels)),
		SampleRate: sampleRate,
	}
	width := len(channels) + 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, models.ParseError(parseOp, err)
		}
		line, _ := cr.FieldPos(0)
		if len(rec) != width {
			return nil, models.ParseErrorf(parseOp, "line %d: expected %d fields, got %d", line, width, len(rec))
		}
		t, err := parseField(rec[0])
		if err != nil {
			return nil, models.ParseErrorf(parseOp, "line %d: time: %v", line, err)
		}
		sig.Time = append(sig.Time, t)
		for i, field := range rec[1:] {
			v, err := parseField(field)
			if err != nil {
				return nil, models.ParseErrorf(parseOp, "line %d: channel %q: %v", line, channels[i], err)
			}
			sig.Data[i] = append(sig.Data[i], v)
		}
	}

	if len(sig.Time) == 0 {
		return nil, models.ParseErrorf(parseOp, "no data rows")
	}
	if err := sig.Validate(); err != nil {
		return nil, models.ParseError(parseOp, err)
	}
	return sig, nil
}

func parseField(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return v, nil
}
