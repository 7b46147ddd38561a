package appeears

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/bloomwatch/bloom-eval-service/internal/domain"
)

// Tabular output column names for the MOD13Q1 point task.
const (
	dateColumn = "Date"
	ndviColumn = "MOD13Q1_061__250m_16_days_NDVI"
	eviColumn  = "MOD13Q1_061__250m_16_days_EVI"
)

// parseSeriesCSV reads the task's tabular output into a date-ascending sample
// sequence. Index values that fail to parse become NaN rather than zero; a
// broken date order fails the whole parse because the trend analysis depends
// on it.
func parseSeriesCSV(r io.Reader) ([]domain.NDVISample, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read tabular header: %v", domain.ErrDataFormat, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}
	dateIdx, ok := columns[dateColumn]
	if !ok {
		return nil, fmt.Errorf("%w: tabular file has no %q column", domain.ErrDataFormat, dateColumn)
	}
	ndviIdx, ok := columns[ndviColumn]
	if !ok {
		return nil, fmt.Errorf("%w: tabular file has no %q column", domain.ErrDataFormat, ndviColumn)
	}
	eviIdx, ok := columns[eviColumn]
	if !ok {
		return nil, fmt.Errorf("%w: tabular file has no %q column", domain.ErrDataFormat, eviColumn)
	}

	var samples []domain.NDVISample
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read tabular row: %v", domain.ErrDataFormat, err)
		}

		date, err := time.Parse("2006-01-02", row[dateIdx])
		if err != nil {
			return nil, fmt.Errorf("%w: unparseable sample date %q", domain.ErrDataFormat, row[dateIdx])
		}

		samples = append(samples, domain.NDVISample{
			Date: date,
			NDVI: floatOrNaN(row[ndviIdx]),
			EVI:  floatOrNaN(row[eviIdx]),
		})
	}

	if err := domain.VerifySampleOrder(samples); err != nil {
		return nil, err
	}
	return samples, nil
}

func floatOrNaN(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
