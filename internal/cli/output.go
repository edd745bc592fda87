// Package cli provides output formatting for the namesim command.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/hyperjump/namesim/internal/indexer"
	"github.com/hyperjump/namesim/internal/models"
	"github.com/hyperjump/namesim/internal/search"
	"github.com/hyperjump/namesim/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// maxNameWidth caps how much of a name the text table prints.
const maxNameWidth = 60

// ParseOutputFormat validates a -output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (supported: text, json)", s)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSearchResults writes a similarity search response to w.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\nFound %d names above %.4f (%s) in %dms\n", response.Total, response.Threshold, response.Scoring, response.QueryTime)
	if response.Skipped > 0 {
		fmt.Fprintf(w, "Skipped %d candidates with a different dimension or zero norm\n", response.Skipped)
	}
	if len(response.Results) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RANK\tSCORE\tNAME")
		for _, r := range response.Results {
			fmt.Fprintf(tw, "%d\t%.4f\t%s\n", r.Rank, r.Score, utils.Truncate(r.Name, maxNameWidth))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	if len(response.Lexical) > 0 {
		fmt.Fprintln(w, "\nLexical matches:")
		if err := writeLexical(w, response.Lexical); err != nil {
			return err
		}
	}
	fmt.Fprintln(w)
	return nil
}

// WriteLookup writes lexical lookup matches to w.
func WriteLookup(w io.Writer, res *search.LookupResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	if len(res.Matches) == 0 {
		fmt.Fprintln(w, "No matching names.")
		if res.DidYouMean != "" {
			fmt.Fprintf(w, "Did you mean: %s\n", res.DidYouMean)
		}
		return nil
	}
	return writeLexical(w, res.Matches)
}

func writeLexical(w io.Writer, matches []models.LexicalMatch) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tEDITS\tNAME\tID")
	for _, m := range matches {
		fmt.Fprintf(tw, "%.4f\t%d\t%s\t%s\n", m.Score, m.Distance, utils.Truncate(m.Name, maxNameWidth), m.ID)
	}
	return tw.Flush()
}

// WriteVectorizeReport writes the outcome of a vectorize run to w.
func WriteVectorizeReport(w io.Writer, report *indexer.VectorizeReport, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, report)
	}
	fmt.Fprintf(w, "Vectorized %d of %d pending names with %s in %s", report.Embedded, report.Pending, report.Model, report.Duration.Round(1e6))
	if report.Skipped > 0 {
		fmt.Fprintf(w, " (%d skipped)", report.Skipped)
	}
	fmt.Fprintln(w)
	return nil
}
