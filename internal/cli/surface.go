package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/noah-isme/records-panel/internal/models"
)

// TerminalSurface prints panel views as plain text. Writes are serialised so
// debounced refreshes do not interleave with command output.
type TerminalSurface struct {
	mu  sync.Mutex
	out io.Writer
}

// NewTerminalSurface writes to out.
func NewTerminalSurface(out io.Writer) *TerminalSurface {
	return &TerminalSurface{out: out}
}

// Notify implements service.Notifier.
func (s *TerminalSurface) Notify(n models.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "[%s] %s\n", n.Level, n.Message)
}

// PublishFilters prints a one-line summary of the filter bar.
func (s *TerminalSurface) PublishFilters(v models.FilterBarView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeFilters(s.out, v)
}

// PublishTable prints the table.
func (s *TerminalSurface) PublishTable(v models.TableView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeTable(s.out, v)
}

// PublishModal prints the open dialog, or a closing line.
func (s *TerminalSurface) PublishModal(v models.ModalView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeModal(s.out, v)
}

// PublishChart prints the chart dataset.
func (s *TerminalSurface) PublishChart(v models.ChartData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeChart(s.out, v)
}

func writeFilters(out io.Writer, v models.FilterBarView) {
	parts := []string{
		"entity=" + v.Entities.Selected(),
		"department=" + v.Departments.Selected(),
	}
	if v.MajorVisible {
		major := v.Majors.Selected()
		if v.Majors.Disabled {
			major = "-"
		}
		parts = append(parts, "major="+major)
	}
	parts = append(parts, fmt.Sprintf("search=%q", v.Search))
	fmt.Fprintf(out, "filters: %s\n", strings.Join(parts, " "))
}

func writeTable(out io.Writer, v models.TableView) {
	columns := v.Columns
	if len(columns) > 0 {
		columns = columns[:len(columns)-1]
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(columns, "\t"))
	if v.Empty() {
		fmt.Fprintln(tw, v.Placeholder)
	}
	for _, row := range v.Rows {
		fmt.Fprintln(tw, strings.Join(row.Cells, "\t"))
	}
	_ = tw.Flush()
}

func writeModal(out io.Writer, v models.ModalView) {
	if !v.Open {
		fmt.Fprintln(out, "dialog closed")
		return
	}
	fmt.Fprintf(out, "== %s ==\n", v.Title)
	for _, f := range v.Fields {
		marker := ""
		if f.ReadOnly {
			marker = " (read-only)"
		}
		fmt.Fprintf(out, "  %s [%s]%s: %s\n", f.Label, f.Name, marker, f.Value)
		if f.Kind == models.FieldSelect {
			choices := make([]string, 0, len(f.Options))
			for _, o := range f.Options {
				if o.Value == "" {
					continue
				}
				choices = append(choices, o.Value)
			}
			fmt.Fprintf(out, "    choices: %s\n", strings.Join(choices, ", "))
		}
	}
}

func writeChart(out io.Writer, v models.ChartData) {
	if !v.Visible() {
		fmt.Fprintln(out, "chart hidden")
		return
	}
	fmt.Fprintf(out, "chart %s (%s): %s\n", v.Type.Title(), v.Kind, v.DatasetLabel)
	for i, label := range v.Labels {
		value := 0.0
		if i < len(v.Values) {
			value = v.Values[i]
		}
		fmt.Fprintf(out, "  #%d %s: %g\n", i+1, label, value)
	}
}
