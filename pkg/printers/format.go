package printers

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects how commands print their results.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

func (f Format) String() string {
	if f == "" {
		return string(FormatTable)
	}
	return string(f)
}

// Set implements pflag.Value.
func (f *Format) Set(raw string) error {
	switch v := Format(strings.ToLower(strings.TrimSpace(raw))); v {
	case FormatTable, FormatJSON, FormatYAML:
		*f = v
		return nil
	default:
		return fmt.Errorf("unknown output format %q, want one of table, json, yaml", raw)
	}
}

// Type implements pflag.Value.
func (f *Format) Type() string { return "format" }

// Structured reports whether f is a machine readable format.
func (f Format) Structured() bool {
	return f == FormatJSON || f == FormatYAML
}

// Encode writes v to w as JSON or YAML.
func Encode(w io.Writer, f Format, v interface{}) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("format %s is not structured", f)
	}
}
