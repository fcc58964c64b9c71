// Package cli provides output helpers for the synergy command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hyperjump/synergy/internal/builder"
	"github.com/hyperjump/synergy/internal/models"
	"github.com/hyperjump/synergy/internal/recommend"
	"github.com/hyperjump/synergy/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact prints each list on one comma separated line.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat resolves a -output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case "", OutputText:
		return OutputText, nil
	case OutputCompact:
		return OutputCompact, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteRelated writes a related recommendation to w in the given format.
func WriteRelated(w io.Writer, resp *models.RelatedResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, resp)
	case OutputCompact:
		fmt.Fprintln(w, strings.Join(resp.ByCost, ", "))
		fmt.Fprintln(w, strings.Join(resp.ByDistance, ", "))
		return nil
	default:
		fmt.Fprintf(w, "\nRelated %s for %s (%dms)\n", resp.Category, strings.Join(resp.Query, ", "), resp.QueryTime)
		writeList(w, "By cost", resp.ByCost, resp.ShortByCost)
		writeList(w, "By similarity", resp.ByDistance, resp.ShortByDistance)
		return nil
	}
}

// WriteItems writes an item recommendation to w in the given format.
func WriteItems(w io.Writer, resp *models.ItemsResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, resp)
	case OutputCompact:
		fmt.Fprintln(w, strings.Join(resp.Items, ", "))
		return nil
	default:
		fmt.Fprintf(w, "\nItems for %s (%dms)\n", strings.Join(resp.Query, ", "), resp.QueryTime)
		writeList(w, "Recommended items", resp.Items, resp.Short)
		return nil
	}
}

func writeList(w io.Writer, title string, ids []string, short bool) {
	fmt.Fprintf(w, "\n--- %s ---\n", title)
	if len(ids) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for i, id := range ids {
		fmt.Fprintf(w, "%3d. %s\n", i+1, id)
	}
	if short {
		fmt.Fprintln(w, "  (fewer results than requested: some candidates were query entities)")
	}
}

// WriteStatus writes the service status to w in the given format.
func WriteStatus(w io.Writer, report *recommend.StatusReport, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, report)
	}
	fmt.Fprintf(w, "status:            %s\n", report.Status)
	if report.DiskUsageBytes > 0 {
		fmt.Fprintf(w, "disk_usage_bytes:  %d   # snapshots + indices on disk\n", report.DiskUsageBytes)
	}
	for _, c := range report.Categories {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "# %s\n", c.Category)
		if !c.Available {
			fmt.Fprintf(w, "available:         false\n")
			fmt.Fprintf(w, "error:             %s\n", utils.Truncate(c.Error, 200))
			continue
		}
		fmt.Fprintf(w, "entities:          %d\n", c.Entities)
		fmt.Fprintf(w, "dimensions:        %d\n", c.Dimension)
		fmt.Fprintf(w, "metric:            %s\n", c.Metric)
		fmt.Fprintf(w, "index_type:        %s\n", c.IndexType)
		if c.Model != "" {
			fmt.Fprintf(w, "model:             %s\n", c.Model)
		}
		if c.SnapshotID != "" {
			fmt.Fprintf(w, "snapshot_id:       %s\n", c.SnapshotID)
		}
	}
	return nil
}

// WriteBuildReports writes the results of a build to w in the given format.
func WriteBuildReports(w io.Writer, reports []*builder.Report, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, reports)
	}
	for _, r := range reports {
		fmt.Fprintf(w, "%s: %d entities, %d dimensions, %s, snapshot %s (%s)\n",
			r.Category, r.Entities, r.Dimension, r.Metric, r.SnapshotPath, r.Took.Round(time.Millisecond))
		if r.IndexPath != "" {
			fmt.Fprintf(w, "  index: %s\n", r.IndexPath)
		}
	}
	return nil
}
