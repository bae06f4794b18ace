package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"pvfit/internal/model"
)

// CurveParser parses one measured IV curve from a CSV file.
//
// Expected format:
//
//	ee,tc,isc,voc,imp,vmp
//	1000,25,5.033,37.82,4.712,30.91
//	v,i
//	0.0,5.033
//	0.5,5.031
//	...
//
// The first two lines carry the curve's conditions and characteristic
// points; the remaining rows are the voltage/current samples of the sweep.
type CurveParser struct{}

func NewCurveParser() *CurveParser {
	return &CurveParser{}
}

var scalarHeader = []string{"ee", "tc", "isc", "voc", "imp", "vmp"}

func (p *CurveParser) Parse(r io.Reader) (model.IVCurve, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return model.IVCurve{}, fmt.Errorf("reading CSV header: %w", err)
	}
	if err := validateScalarHeader(header); err != nil {
		return model.IVCurve{}, err
	}

	record, err := cr.Read()
	if err != nil {
		return model.IVCurve{}, fmt.Errorf("reading scalar row: %w", err)
	}
	curve, err := parseScalars(record)
	if err != nil {
		return model.IVCurve{}, err
	}

	sampleHeader, err := cr.Read()
	if err != nil {
		return model.IVCurve{}, fmt.Errorf("reading sample header: %w", err)
	}
	if err := validateSampleHeader(sampleHeader); err != nil {
		return model.IVCurve{}, err
	}

	lineNum := 3
	for {
		lineNum++
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.IVCurve{}, fmt.Errorf("reading CSV line %d: %w", lineNum, err)
		}
		if len(record) != 2 {
			return model.IVCurve{}, fmt.Errorf("line %d: expected 2 fields, got %d", lineNum, len(record))
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
		if err != nil {
			return model.IVCurve{}, fmt.Errorf("line %d: parsing voltage %q: %w", lineNum, record[0], err)
		}
		i, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return model.IVCurve{}, fmt.Errorf("line %d: parsing current %q: %w", lineNum, record[1], err)
		}
		curve.V = append(curve.V, v)
		curve.I = append(curve.I, i)
	}

	if len(curve.V) == 0 {
		return model.IVCurve{}, fmt.Errorf("no voltage/current samples")
	}

	return curve, nil
}

func validateScalarHeader(header []string) error {
	if len(header) != len(scalarHeader) {
		return fmt.Errorf("expected %d columns, got %d", len(scalarHeader), len(header))
	}
	for i, col := range scalarHeader {
		if strings.TrimSpace(strings.ToLower(header[i])) != col {
			return fmt.Errorf("expected column %d to be %q, got %q", i, col, header[i])
		}
	}
	return nil
}

func validateSampleHeader(header []string) error {
	if len(header) != 2 ||
		strings.TrimSpace(strings.ToLower(header[0])) != "v" ||
		strings.TrimSpace(strings.ToLower(header[1])) != "i" {
		return fmt.Errorf("expected sample header \"v,i\", got %q", strings.Join(header, ","))
	}
	return nil
}

func parseScalars(record []string) (model.IVCurve, error) {
	if len(record) != len(scalarHeader) {
		return model.IVCurve{}, fmt.Errorf("scalar row: expected %d fields, got %d", len(scalarHeader), len(record))
	}
	vals := make([]float64, len(record))
	for i, field := range record {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return model.IVCurve{}, fmt.Errorf("scalar row: parsing %s=%q: %w", scalarHeader[i], field, err)
		}
		vals[i] = v
	}
	return model.IVCurve{
		Ee:  vals[0],
		Tc:  vals[1],
		Isc: vals[2],
		Voc: vals[3],
		Imp: vals[4],
		Vmp: vals[5],
	}, nil
}
