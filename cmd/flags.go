package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"mesocratic/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// parseDollars converts "1234.56" into cents. More than two decimals is an
// error rather than a silent rounding.
func parseDollars(field, s string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$")))
	if err != nil {
		return 0, models.NewValidationError(field, "must be a dollar amount, got %q", s)
	}
	cents := d.Shift(2)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, models.NewValidationError(field, "must have at most two decimals, got %q", s)
	}
	return cents.IntPart(), nil
}

func parseID(field, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, models.NewValidationError(field, "must be a UUID, got %q", s)
	}
	return id, nil
}

// parseDate reads a YYYY-MM-DD calendar date as UTC midnight
func parseDate(field, s string) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, models.NewValidationError(field, "must be YYYY-MM-DD, got %q", s)
	}
	return t, nil
}

// writeOutput writes to path, or to w when path is empty or "-"
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
