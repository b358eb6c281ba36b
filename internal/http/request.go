package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/example/dropplan/internal/planning"
)

const maxBodyBytes = 1 << 20

func decodeJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return errBadRequestBody
	}
	return json.Unmarshal(body, dst)
}

func pathVar(r *http.Request, name string) string {
	return strings.TrimSpace(mux.Vars(r)[name])
}

func queryParam(r *http.Request, name string) *string {
	value := strings.TrimSpace(r.URL.Query().Get(name))
	if value == "" {
		return nil
	}
	return &value
}

// fieldErrors collects request level parse failures keyed by JSON field name.
type fieldErrors map[string]string

func (f fieldErrors) day(field, value string) time.Time {
	if strings.TrimSpace(value) == "" {
		f[field] = "is required"
		return time.Time{}
	}
	day, err := planning.ParseDay(value)
	if err != nil {
		f[field] = "must be a date in YYYY-MM-DD format"
		return time.Time{}
	}
	return day
}

func (f fieldErrors) optionalDay(field string, value *string) *time.Time {
	if value == nil {
		return nil
	}
	day := f.day(field, *value)
	return &day
}

func (f fieldErrors) days(field string, values []string) []time.Time {
	days, err := planning.ParseWorkingDays(values)
	if err != nil {
		f[field] = "must contain dates in YYYY-MM-DD format"
		return nil
	}
	return days
}

// optional distinguishes an absent JSON member from an explicit null.
type optional[T any] struct {
	Set   bool
	Value *T
}

func (o *optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(bytes.TrimSpace(data)) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// cleared reports an explicit null.
func (o optional[T]) cleared() bool {
	return o.Set && o.Value == nil
}
