package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/patrickwarner/marketpulse/internal/models"
)

// Canonical column names after header normalization.
const (
	colDate        = "date"
	colChannel     = "channel"
	colSpend       = "spend"
	colImpressions = "impressions"
	colClicks      = "clicks"
	colRevenue     = "revenue"
	colAttrRevenue = "attr_revenue"
)

// headerAliases maps the column spellings seen in real platform exports onto
// canonical names.
var headerAliases = map[string]string{
	"day":                "date",
	"impression":         "impressions",
	"cost":               "spend",
	"attributed_revenue": "attr_revenue",
	"total_revenue":      "revenue",
}

// normalizeHeader lowercases a header cell, trims a BOM and surrounding
// space, collapses inner spaces to underscores and applies aliases.
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\uFEFF")
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "_")
	if canonical, ok := headerAliases[h]; ok {
		return canonical
	}
	return h
}

// readHeader consumes the first CSV record and maps canonical column names
// to their positions. Duplicate columns keep the first occurrence.
func readHeader(rd *csv.Reader) (map[string]int, error) {
	record, err := rd.Read()
	if err != nil {
		return nil, err
	}
	cols := make(map[string]int, len(record))
	for i, cell := range record {
		name := normalizeHeader(cell)
		if _, seen := cols[name]; !seen {
			cols[name] = i
		}
	}
	return cols, nil
}

// requireColumns returns a SchemaError naming the first required column the
// header does not provide.
func requireColumns(source string, cols map[string]int, required ...string) *SchemaError {
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return &SchemaError{Source: source, Column: name}
		}
	}
	return nil
}

// parseChannelCSV reads one channel export. Rows that fail validation are
// excluded and surfaced as diagnostics; only a missing or broken header is
// fatal for the source.
func parseChannelCSV(r io.Reader, source string) ([]models.ChannelRecord, []models.Diagnostic, error) {
	rd := csv.NewReader(r)
	rd.TrimLeadingSpace = true

	cols, err := readHeader(rd)
	if err != nil {
		if err == io.EOF {
			return nil, nil, &SchemaError{Source: source, Column: colDate}
		}
		return nil, nil, fmt.Errorf("read %s header: %w", source, err)
	}
	if serr := requireColumns(source, cols, colDate, colChannel, colSpend, colImpressions, colClicks); serr != nil {
		return nil, nil, serr
	}
	_, hasAttr := cols[colAttrRevenue]

	var (
		records []models.ChannelRecord
		diags   []models.Diagnostic
	)
	for line := 2; ; line++ {
		record, err := rd.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			diags = append(diags, models.Diagnostic{
				Source:  source,
				Line:    line,
				Code:    models.DiagMalformedRow,
				Message: fmt.Sprintf("row excluded: %v", err),
			})
			continue
		}
		rec, verr := parseChannelRow(source, line, cols, hasAttr, record)
		if verr != nil {
			diags = append(diags, verr.Diagnostic())
			continue
		}
		records = append(records, *rec)
	}
	return records, diags, nil
}

func parseChannelRow(source string, line int, cols map[string]int, hasAttr bool, record []string) (*models.ChannelRecord, *ValidationError) {
	date, verr := parseDate(source, line, record[cols[colDate]])
	if verr != nil {
		return nil, verr
	}
	channel, ok := models.ParseChannel(record[cols[colChannel]])
	if !ok {
		return nil, &ValidationError{
			Source: source, Line: line, Field: colChannel,
			Code:   models.DiagUnknownChannel,
			Reason: fmt.Sprintf("has unknown channel %q", record[cols[colChannel]]),
		}
	}
	spend, verr := parseMoney(source, line, colSpend, record[cols[colSpend]])
	if verr != nil {
		return nil, verr
	}
	impressions, verr := parseCount(source, line, colImpressions, record[cols[colImpressions]])
	if verr != nil {
		return nil, verr
	}
	clicks, verr := parseCount(source, line, colClicks, record[cols[colClicks]])
	if verr != nil {
		return nil, verr
	}
	// Clicks above impressions mean broken tracking; the row is excluded
	// rather than clamped so totals never hide the problem.
	if clicks > impressions {
		return nil, &ValidationError{
			Source: source, Line: line, Field: colClicks,
			Code:   models.DiagClicksExceedImpressions,
			Reason: fmt.Sprintf("count %d exceeds impressions %d", clicks, impressions),
		}
	}

	rec := &models.ChannelRecord{
		Date:        date,
		Channel:     channel,
		Spend:       spend,
		Impressions: impressions,
		Clicks:      clicks,
	}
	if hasAttr {
		attr, verr := parseMoney(source, line, colAttrRevenue, record[cols[colAttrRevenue]])
		if verr != nil {
			return nil, verr
		}
		rec.AttrRevenue = attr
	}
	return rec, nil
}

// parseRevenueCSV reads the business revenue export.
func parseRevenueCSV(r io.Reader, source string) ([]models.RevenueRecord, []models.Diagnostic, error) {
	rd := csv.NewReader(r)
	rd.TrimLeadingSpace = true

	cols, err := readHeader(rd)
	if err != nil {
		if err == io.EOF {
			return nil, nil, &SchemaError{Source: source, Column: colDate}
		}
		return nil, nil, fmt.Errorf("read %s header: %w", source, err)
	}
	if serr := requireColumns(source, cols, colDate, colRevenue); serr != nil {
		return nil, nil, serr
	}

	var (
		records []models.RevenueRecord
		diags   []models.Diagnostic
	)
	for line := 2; ; line++ {
		record, err := rd.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			diags = append(diags, models.Diagnostic{
				Source:  source,
				Line:    line,
				Code:    models.DiagMalformedRow,
				Message: fmt.Sprintf("row excluded: %v", err),
			})
			continue
		}
		date, verr := parseDate(source, line, record[cols[colDate]])
		if verr != nil {
			diags = append(diags, verr.Diagnostic())
			continue
		}
		revenue, verr := parseMoney(source, line, colRevenue, record[cols[colRevenue]])
		if verr != nil {
			diags = append(diags, verr.Diagnostic())
			continue
		}
		records = append(records, models.RevenueRecord{Date: date, Revenue: revenue})
	}
	return records, diags, nil
}

func parseDate(source string, line int, cell string) (time.Time, *ValidationError) {
	t, err := time.ParseInLocation(models.DayKeyFormat, strings.TrimSpace(cell), time.UTC)
	if err != nil {
		return time.Time{}, &ValidationError{
			Source: source, Line: line, Field: colDate,
			Code:   models.DiagBadDate,
			Reason: fmt.Sprintf("value %q is not a YYYY-MM-DD date", cell),
		}
	}
	return t, nil
}

// parseMoney parses a non-negative currency amount. A leading dollar sign and
// thousands separators are tolerated; empty cells read as zero, matching how
// platforms export days with no activity.
func parseMoney(source string, line int, field, cell string) (float64, *ValidationError) {
	s := strings.TrimSpace(cell)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &ValidationError{
			Source: source, Line: line, Field: field,
			Code:   models.DiagBadNumber,
			Reason: fmt.Sprintf("value %q is not a number", cell),
		}
	}
	if v < 0 {
		return 0, &ValidationError{
			Source: source, Line: line, Field: field,
			Code:   models.DiagNegativeValue,
			Reason: fmt.Sprintf("value %v is negative", v),
		}
	}
	return v, nil
}

// parseCount parses a non-negative integer count. Counts written with a
// decimal point are accepted when they are whole numbers.
func parseCount(source string, line int, field, cell string) (int64, *ValidationError) {
	s := strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != math.Trunc(f) {
			return 0, &ValidationError{
				Source: source, Line: line, Field: field,
				Code:   models.DiagBadNumber,
				Reason: fmt.Sprintf("value %q is not a whole number", cell),
			}
		}
		v = int64(f)
	}
	if v < 0 {
		return 0, &ValidationError{
			Source: source, Line: line, Field: field,
			Code:   models.DiagNegativeValue,
			Reason: fmt.Sprintf("value %d is negative", v),
		}
	}
	return v, nil
}
