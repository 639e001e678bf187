package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"bookshelf/internal/tracking"
)

// Output formats accepted by the --output flag.
const (
	outputJSON  = "json"
	outputTable = "table"
	outputList  = "list"
)

func addOutputFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "output", outputJSON, "Output format: json, table, or list")
}

func validateOutputFormat(format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case outputJSON, outputTable, outputList:
		return format, nil
	}
	return "", fmt.Errorf("unsupported output format %q (expected json, table, or list)", format)
}

// marshalCompact encodes v without HTML escaping so titles keep their
// punctuation.
func marshalCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// recordDocument renders one record to compact JSON, optionally appending
// the _key member selection queries rely on.
func recordDocument(record *tracking.Record, withKey bool) ([]byte, error) {
	data, err := marshalCompact(record)
	if err != nil {
		return nil, fmt.Errorf("encode record %s: %w", record.Key, err)
	}
	if !withKey {
		return data, nil
	}
	keyJSON, err := json.Marshal(record.Key)
	if err != nil {
		return nil, err
	}
	doc := make([]byte, 0, len(data)+len(keyJSON)+9)
	doc = append(doc, data[:len(data)-1]...)
	doc = append(doc, `,"_key":`...)
	doc = append(doc, keyJSON...)
	doc = append(doc, '}')
	return doc, nil
}

// recordDocuments renders every record in the store, in insertion order.
func recordDocuments(store *tracking.Store, withKey bool) ([][]byte, error) {
	records := store.Records()
	docs := make([][]byte, 0, len(records))
	for _, record := range records {
		doc, err := recordDocument(record, withKey)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// documentArray joins compact JSON documents into one array document.
func documentArray(docs [][]byte) []byte {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, doc := range docs {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(doc)
	}
	buf.WriteByte(']')
	return buf.Bytes()
}

// resultArray reassembles selection matches into one array document.
func resultArray(matches []gjson.Result) []byte {
	docs := make([][]byte, 0, len(matches))
	for _, match := range matches {
		docs = append(docs, []byte(match.Raw))
	}
	return documentArray(docs)
}

// sortRecordResults orders matches by source year then local id, newest
// first. Values without those fields sort last and keep their order.
func sortRecordResults(matches []gjson.Result) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if ay, by := a.Get("source_year").Int(), b.Get("source_year").Int(); ay != by {
			return ay > by
		}
		return a.Get("local_id").Int() > b.Get("local_id").Int()
	})
}

// filterDocs runs a gjson query against the record documents. Singular
// query results come back as a one-element slice.
func filterDocs(docs [][]byte, path string) []gjson.Result {
	result := gjson.GetBytes(documentArray(docs), path)
	if !result.Exists() {
		return nil
	}
	if result.IsArray() {
		return result.Array()
	}
	return []gjson.Result{result}
}

// matchKeys extracts the record key each selection match carries.
func matchKeys(matches []gjson.Result) ([]string, error) {
	keys := make([]string, 0, len(matches))
	for _, match := range matches {
		key := match.Get("_key").String()
		if key == "" {
			return nil, fmt.Errorf("selection must yield whole records (no _key field in match)")
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// renderOutput writes a JSON document to the command's stdout in the
// requested format.
func renderOutput(cmd *cobra.Command, format string, doc []byte) error {
	out := cmd.OutOrStdout()
	switch format {
	case outputTable:
		return renderTableOutput(out, doc)
	case outputList:
		return renderListOutput(out, doc)
	default:
		var buf bytes.Buffer
		if err := json.Indent(&buf, doc, "", "  "); err != nil {
			return fmt.Errorf("format output: %w", err)
		}
		fmt.Fprintln(out, buf.String())
		return nil
	}
}

func renderTableOutput(out io.Writer, doc []byte) error {
	parsed := gjson.ParseBytes(doc)
	switch {
	case parsed.IsArray():
		items := parsed.Array()
		if len(items) == 0 {
			fmt.Fprintln(out, "[]")
			return nil
		}
		if items[0].IsObject() {
			var columns []string
			items[0].ForEach(func(key, _ gjson.Result) bool {
				columns = append(columns, key.String())
				return true
			})
			rows := make([][]string, 0, len(items))
			for _, item := range items {
				row := make([]string, len(columns))
				for i, column := range columns {
					row[i] = cellValue(item.Get(column))
				}
				rows = append(rows, row)
			}
			fmt.Fprintln(out, renderTable(columns, rows, nil))
			return nil
		}
		rows := make([][]string, 0, len(items))
		for _, item := range items {
			rows = append(rows, []string{cellValue(item)})
		}
		fmt.Fprintln(out, renderTable(nil, rows, nil))
		return nil
	case parsed.IsObject():
		var rows [][]string
		parsed.ForEach(func(key, value gjson.Result) bool {
			rows = append(rows, []string{key.String(), propertyValue(value)})
			return true
		})
		fmt.Fprintln(out, renderTable([]string{"Property", "Value"}, rows, nil))
		return nil
	default:
		fmt.Fprintln(out, cellValue(parsed))
		return nil
	}
}

func renderListOutput(out io.Writer, doc []byte) error {
	bold := color.New(color.Bold).SprintFunc()
	parsed := gjson.ParseBytes(doc)
	switch {
	case parsed.IsArray():
		items := parsed.Array()
		if len(items) == 0 {
			fmt.Fprintln(out, "[]")
			return nil
		}
		for _, item := range items {
			if item.IsObject() {
				var parts []string
				item.ForEach(func(key, value gjson.Result) bool {
					parts = append(parts, fmt.Sprintf("%s: %s", bold(key.String()), cellValue(value)))
					return true
				})
				fmt.Fprintln(out, " • "+strings.Join(parts, " | "))
			} else {
				fmt.Fprintf(out, " • %s\n", cellValue(item))
			}
		}
		return nil
	case parsed.IsObject():
		parsed.ForEach(func(key, value gjson.Result) bool {
			fmt.Fprintf(out, " • %s: %s\n", bold(key.String()), cellValue(value))
			return true
		})
		return nil
	default:
		fmt.Fprintln(out, cellValue(parsed))
		return nil
	}
}

// cellValue renders a JSON value the way a cell shows it: bare strings,
// JSON text for everything else.
func cellValue(v gjson.Result) string {
	switch {
	case !v.Exists():
		return ""
	case v.Type == gjson.String:
		return v.String()
	case v.Type == gjson.Null:
		return "null"
	default:
		return v.Raw
	}
}

// propertyValue is cellValue with nested structures pretty-printed for the
// single-record Property/Value table.
func propertyValue(v gjson.Result) string {
	if v.IsObject() || v.IsArray() {
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(v.Raw), "", "  "); err == nil {
			return buf.String()
		}
	}
	return cellValue(v)
}
