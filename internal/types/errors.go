package types

import (
	"fmt"
	"strings"
)

// SchemaError reports every required column missing from an input table.
// It is raised at the table boundary, before any computation, and is never
// partial: all missing columns are collected first.
type SchemaError struct {
	Table   string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required columns: %s", e.Table, strings.Join(e.Missing, ", "))
}
