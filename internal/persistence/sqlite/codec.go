package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/dropplan/internal/planning"
	"github.com/shopspring/decimal"
)

// instantLayout has a fixed-width fraction so that stored instants sort
// lexically in time order.
const instantLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatInstant(t time.Time) string {
	return t.UTC().Format(instantLayout)
}

func parseInstant(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", value, err)
	}
	return t.UTC(), nil
}

func nullInstant(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatInstant(*t), Valid: true}
}

func parseNullInstant(value sql.NullString) (*time.Time, error) {
	if !value.Valid {
		return nil, nil
	}
	t, err := parseInstant(value.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullDay(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: planning.FormatDay(*t), Valid: true}
}

func parseNullDay(value sql.NullString) (*time.Time, error) {
	if !value.Valid {
		return nil, nil
	}
	d, err := planning.ParseDay(value.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	s := value.String
	return &s
}

// Decimals are stored as TEXT and summed in Go; SQL arithmetic on them would
// coerce to REAL.
func formatDecimal(d decimal.Decimal) string {
	return d.String()
}

func parseDecimal(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid decimal %q: %w", value, err)
	}
	return d, nil
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatDecimal(*d), Valid: true}
}

func parseNullDecimal(value sql.NullString) (*decimal.Decimal, error) {
	if !value.Valid {
		return nil, nil
	}
	d, err := parseDecimal(value.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func encodeStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("encode list: %w", err)
	}
	return string(raw), nil
}

func decodeStrings(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return values, nil
}

func encodeDays(days []time.Time) (string, error) {
	return encodeStrings(planning.FormatWorkingDays(days))
}

func decodeDays(raw string) ([]time.Time, error) {
	values, err := decodeStrings(raw)
	if err != nil {
		return nil, err
	}
	return planning.ParseWorkingDays(values)
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
