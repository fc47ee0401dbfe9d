package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/isometry/terraform-provider-ldap/internal/adapter"
)

type entryJSON struct {
	DN            string         `json:"dn"`
	ObjectClasses []string       `json:"object_classes,omitempty"`
	Attributes    map[string]any `json:"attributes"`
}

type resultJSON struct {
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Failures  []string `json:"failures,omitempty"`
}

func toEntryJSON(r adapter.Resource) entryJSON {
	return entryJSON{
		DN:            r.DN(),
		ObjectClasses: r.ObjectClasses(),
		Attributes:    r.Attributes(),
	}
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// fieldValue looks name up case-insensitively where the resource allows.
func fieldValue(r adapter.Resource, name string) string {
	if e, ok := r.(*adapter.Entry); ok {
		v, _ := e.Get(name)
		return v
	}
	if v, ok := r.Attributes()[name]; ok {
		return fmt.Sprint(v)
	}
	return ""
}

func printEntriesJSON(w io.Writer, resources []adapter.Resource) error {
	out := make([]entryJSON, 0, len(resources))
	for _, r := range resources {
		out = append(out, toEntryJSON(r))
	}
	return writeJSON(w, out)
}

// printEntriesTable prints one row per entry, the DN first.
func printEntriesTable(w io.Writer, resources []adapter.Resource, fields []string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	header := append([]string{"DN"}, fields...)
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, r := range resources {
		row := make([]string, 0, len(header))
		row = append(row, r.DN())
		for _, f := range fields {
			row = append(row, fieldValue(r, f))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	return tw.Flush()
}

// printEntryDetail prints an entry as LDIF-style name: value lines.
func printEntryDetail(w io.Writer, r adapter.Resource) error {
	if _, err := fmt.Fprintf(w, "dn: %s\n", r.DN()); err != nil {
		return err
	}
	for _, class := range r.ObjectClasses() {
		fmt.Fprintf(w, "objectClass: %s\n", class)
	}

	attrs := r.Attributes()
	for _, name := range slices.Sorted(maps.Keys(attrs)) {
		fmt.Fprintf(w, "%s: %v\n", name, attrs[name])
	}
	return nil
}

// printResult summarizes a write and returns the joined failures.
func printResult(w io.Writer, verb string, res adapter.Result) error {
	if jsonOutput {
		out := resultJSON{Succeeded: res.Succeeded, Failed: res.Failed()}
		for _, f := range res.Failures {
			out.Failures = append(out.Failures, f.Error())
		}
		if err := writeJSON(w, out); err != nil {
			return err
		}
		return res.Err()
	}

	fmt.Fprintf(w, "%s %d, failed %d\n", verb, res.Succeeded, res.Failed())
	return res.Err()
}
