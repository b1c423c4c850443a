// Package render writes command results as table, json, ndjson or yaml.
package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"sigs.k8s.io/yaml"
)

type OutputFormat string

const (
	OutputFormatTable  OutputFormat = "table"
	OutputFormatJSON   OutputFormat = "json"
	OutputFormatNDJSON OutputFormat = "ndjson"
	OutputFormatYAML   OutputFormat = "yaml"
)

func (o OutputFormat) String() string {
	return string(o)
}

// OutputFormats lists the formats in flag order, table first.
func OutputFormats() []string {
	return []string{
		OutputFormatTable.String(),
		OutputFormatJSON.String(),
		OutputFormatNDJSON.String(),
		OutputFormatYAML.String(),
	}
}

// Table describes how items are laid out in table output.
type Table[T any] struct {
	Header table.Row
	Row    func(T) table.Row
	// Merge lists 1-based column numbers whose equal neighbours are merged.
	Merge []int
}

// Items writes items in format to w.
func Items[T any](w io.Writer, format string, items []T, t Table[T]) error {
	switch OutputFormat(format) {
	case OutputFormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if items == nil {
			items = []T{}
		}
		return encoder.Encode(items)
	case OutputFormatNDJSON:
		encoder := json.NewEncoder(w)
		for _, item := range items {
			if err := encoder.Encode(item); err != nil {
				return err
			}
		}
		return nil
	case OutputFormatYAML:
		data, err := yaml.Marshal(items)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case OutputFormatTable:
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.AppendHeader(t.Header)
		for _, item := range items {
			tw.AppendRow(t.Row(item))
		}
		configs := make([]table.ColumnConfig, 0, len(t.Merge))
		for _, n := range t.Merge {
			configs = append(configs, table.ColumnConfig{Number: n, AutoMerge: true})
		}
		tw.SetColumnConfigs(configs)

		style := table.StyleLight
		style.Options.DrawBorder = false
		tw.SetStyle(style)
		tw.Render()
		return nil
	default:
		return fmt.Errorf("invalid output format %q", format)
	}
}
