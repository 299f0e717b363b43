// Package codec reads and writes titles in the catalog's delimited-text
// dialect: comma separated, double-quote quoting with doubled inner quotes,
// UTF-8 with a leading byte-order mark and a fixed header line.
package codec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/narwhalmedia/watchlist/internal/catalog/domain"
	"github.com/narwhalmedia/watchlist/pkg/errors"
)

const (
	Delimiter = ','
	Quote     = '"'

	// BOM is written at the start of every catalog file.
	BOM = "\uFEFF"
)

// Columns in file order. Decoding requires at least this many fields.
var Columns = []string{
	"name",
	"kind",
	"releaseYear",
	"genre",
	"userRating",
	"status",
	"progress",
	"totalUnits",
	"description",
}

const (
	colName = iota
	colKind
	colYear
	colGenre
	colRating
	colStatus
	colProgress
	colTotal
	colDescription
)

// Header returns the header line without a line terminator.
func Header() string {
	return strings.Join(Columns, string(Delimiter))
}

// EncodeRecord renders t as one record. The result contains raw newlines when
// a quoted field does.
func EncodeRecord(t domain.Title) string {
	fields := []string{
		t.Name,
		string(t.Kind),
		strconv.Itoa(t.ReleaseYear),
		t.Genre,
		FormatRating(t.UserRating),
		string(t.Status),
		strconv.Itoa(t.Progress),
		strconv.Itoa(t.TotalUnits),
		t.Description,
	}

	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(Delimiter)
		}
		b.WriteString(escape(f))
	}
	return b.String()
}

// FormatRating renders a rating with one fractional digit and a '.' point.
func FormatRating(r float64) string {
	return strconv.FormatFloat(r, 'f', 1, 64)
}

func escape(field string) string {
	if !strings.ContainsAny(field, "\",\n\r") {
		return field
	}
	return string(Quote) + strings.ReplaceAll(field, `"`, `""`) + string(Quote)
}

// SplitFields breaks a record into raw field values. A quote toggles quoted
// mode; inside it a doubled quote is one literal quote and the delimiter is
// plain text.
func SplitFields(record string) []string {
	var (
		fields   []string
		b        strings.Builder
		inQuotes bool
	)
	for i := 0; i < len(record); i++ {
		c := record[i]
		switch {
		case c == Quote:
			if inQuotes && i+1 < len(record) && record[i+1] == Quote {
				b.WriteByte(Quote)
				i++
				continue
			}
			inQuotes = !inQuotes
		case c == Delimiter && !inQuotes:
			fields = append(fields, b.String())
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	return append(fields, b.String())
}

// DecodeRecord parses one record. Fields beyond the known columns are
// ignored. Failures are StorageCorrupt.
func DecodeRecord(record string) (domain.Title, error) {
	fields := SplitFields(record)
	if len(fields) < len(Columns) {
		return domain.Title{}, errors.StorageCorrupt(
			fmt.Sprintf("expected %d fields, got %d", len(Columns), len(fields)), nil)
	}

	kind, err := domain.ParseKind(fields[colKind])
	if err != nil {
		return domain.Title{}, errors.StorageCorrupt("invalid kind", err)
	}
	year, err := parseInt(fields[colYear])
	if err != nil {
		return domain.Title{}, errors.StorageCorrupt("invalid releaseYear", err)
	}
	rating, err := parseRating(fields[colRating])
	if err != nil {
		return domain.Title{}, errors.StorageCorrupt("invalid userRating", err)
	}
	status, err := domain.ParseStatus(fields[colStatus])
	if err != nil {
		return domain.Title{}, errors.StorageCorrupt("invalid status", err)
	}
	progress, err := parseInt(fields[colProgress])
	if err != nil {
		return domain.Title{}, errors.StorageCorrupt("invalid progress", err)
	}
	total, err := parseInt(fields[colTotal])
	if err != nil {
		return domain.Title{}, errors.StorageCorrupt("invalid totalUnits", err)
	}

	return domain.Title{
		Name:        fields[colName],
		Kind:        kind,
		ReleaseYear: year,
		Genre:       fields[colGenre],
		UserRating:  rating,
		Status:      status,
		Progress:    progress,
		TotalUnits:  total,
		Description: fields[colDescription],
	}, nil
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}

// parseRating also accepts a decimal comma, which older files contain.
func parseRating(s string) (float64, error) {
	return strconv.ParseFloat(strings.Replace(strings.TrimSpace(s), ",", ".", 1), 64)
}
