// Package cli is the panelctl console: one panel driven from a readline
// prompt instead of a browser.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/noah-isme/records-panel/internal/models"
	"github.com/noah-isme/records-panel/internal/service"
)

// ErrExit is returned by Exec for the exit command.
var ErrExit = errors.New("exit requested")

// LineReader reads one command line. *readline.Instance satisfies it.
type LineReader interface {
	Readline() (string, error)
}

// Prompter asks a question and returns the answer line.
type Prompter interface {
	Ask(question string) (string, error)
}

// FileSaver persists exported files.
type FileSaver interface {
	Save(filename string, data []byte) (string, error)
}

// AuditReader lists recent audit rows.
type AuditReader interface {
	Recent(ctx context.Context, resource string, limit int) ([]models.AuditLog, error)
}

// Console executes commands against a panel.
type Console struct {
	panel *service.Panel
	out   io.Writer
	ask   Prompter
	files FileSaver
	audit AuditReader

	values service.FormValues
}

// NewConsole wires a console. audit may be nil when the audit trail is off.
func NewConsole(panel *service.Panel, out io.Writer, ask Prompter, files FileSaver, audit AuditReader) *Console {
	return &Console{panel: panel, out: out, ask: ask, files: files, audit: audit, values: service.FormValues{}}
}

// Run reads and executes lines until exit, EOF or interrupt.
func (c *Console) Run(ctx context.Context, in LineReader) error {
	for {
		line, err := in.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := c.Exec(ctx, line); err != nil {
			if errors.Is(err, ErrExit) {
				return nil
			}
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
	}
}

// Exec runs one command line.
func (c *Console) Exec(ctx context.Context, line string) error {
	args := ParseArgs(strings.TrimSpace(line))
	if len(args) == 0 {
		return nil
	}

	switch args[0] {
	case "entity":
		return c.filter(ctx, service.FilterFieldEntity, args[1:], true)
	case "dept":
		return c.filter(ctx, service.FilterFieldDepartment, args[1:], false)
	case "major":
		return c.filter(ctx, service.FilterFieldMajor, args[1:], false)
	case "search":
		c.panel.Search(strings.Join(args[1:], " "))
		return nil
	case "show":
		c.show()
		return nil
	case "edit":
		if len(args) != 2 {
			return usage("edit")
		}
		if err := c.panel.OpenEdit(ctx, c.panel.Filter().Entity, args[1]); err != nil {
			return err
		}
		c.values = service.FormValues{}
		return nil
	case "new":
		entity := c.panel.Filter().Entity
		if len(args) > 1 {
			var ok bool
			if entity, ok = models.ParseEntity(args[1]); !ok {
				return fmt.Errorf("unknown entity %q", args[1])
			}
		}
		if err := c.panel.OpenCreate(ctx, entity); err != nil {
			return err
		}
		c.values = service.FormValues{}
		return nil
	case "set":
		if len(args) < 2 {
			return usage("set")
		}
		return c.set(ctx, args[1], strings.Join(args[2:], " "))
	case "save":
		values := c.values
		c.values = service.FormValues{}
		return c.panel.SaveModal(ctx, values)
	case "cancel":
		c.values = service.FormValues{}
		return c.panel.CancelModal()
	case "delete":
		if len(args) != 2 {
			return usage("delete")
		}
		return c.panel.Delete(ctx, c.panel.Filter().Entity, args[1], service.ConfirmFunc(c.confirm))
	case "chart":
		chartType := ""
		if len(args) > 1 {
			chartType = args[1]
		}
		_, err := c.panel.SelectChart(ctx, chartType)
		return err
	case "export":
		if len(args) != 3 {
			return usage("export")
		}
		return c.export(args[1], args[2])
	case "audit":
		return c.showAudit(ctx, args[1:])
	case "help":
		c.help(args[1:])
		return nil
	case "exit", "quit":
		return ErrExit
	}
	return fmt.Errorf("unknown command: %s", args[0])
}

func (c *Console) filter(ctx context.Context, field string, args []string, required bool) error {
	if required && len(args) == 0 {
		return usage(field)
	}
	return c.panel.ChangeFilter(ctx, field, strings.Join(args, " "))
}

func (c *Console) set(ctx context.Context, field, value string) error {
	modal := c.panel.Modal()
	if !modal.Open {
		return fmt.Errorf("no dialog open")
	}
	if modal.Field(field) == nil {
		return fmt.Errorf("unknown field %q", field)
	}
	c.values[field] = value
	if field == "Department" || field == "department" {
		return c.panel.ModalDepartment(ctx, value, c.values)
	}
	return nil
}

func (c *Console) confirm(_ context.Context, message string) bool {
	answer, err := c.ask.Ask(message + " (y/n) ")
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "بله":
		return true
	}
	return false
}

func (c *Console) export(format, filename string) error {
	var (
		file *service.Download
		err  error
	)
	if format == "csv" {
		file, err = c.panel.ExportTableCSV()
	} else {
		var f service.ChartFormat
		if f, err = service.ParseChartFormat(format); err != nil {
			return err
		}
		file, err = c.panel.ExportChart(f)
	}
	if err != nil {
		return err
	}
	path, err := c.files.Save(filename, file.Body)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "saved %s\n", path)
	return nil
}

func (c *Console) showAudit(ctx context.Context, args []string) error {
	if c.audit == nil {
		return fmt.Errorf("audit trail disabled")
	}
	resource, limit := "", 20
	for _, a := range args {
		if n, err := strconv.Atoi(a); err == nil {
			limit = n
			continue
		}
		resource = a
	}
	logs, err := c.audit.Recent(ctx, resource, limit)
	if err != nil {
		return err
	}
	if len(logs) == 0 {
		fmt.Fprintln(c.out, "no audit entries")
		return nil
	}
	for _, l := range logs {
		id := ""
		if l.ResourceID != nil {
			id = *l.ResourceID
		}
		fmt.Fprintf(c.out, "%s  %-6s %s/%s\n", l.CreatedAt.Format("2006-01-02 15:04:05"), l.Action, l.Resource, id)
	}
	return nil
}

func (c *Console) show() {
	snap := c.panel.Snapshot()
	writeFilters(c.out, snap.Filters)
	writeTable(c.out, snap.Table)
	if snap.Modal.Open {
		writeModal(c.out, snap.Modal)
	}
	if snap.Chart.Visible() {
		writeChart(c.out, snap.Chart)
	}
}

func (c *Console) help(args []string) {
	if len(args) > 0 {
		if text, ok := commandHelp[args[0]]; ok {
			fmt.Fprintln(c.out, text)
			return
		}
		fmt.Fprintf(c.out, "Unknown command: %s\n", args[0])
		return
	}
	names := make([]string, 0, len(commandHelp))
	for name := range commandHelp {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(c.out, "Available commands:")
	for _, name := range names {
		fmt.Fprintf(c.out, "  %s\n", name)
	}
	fmt.Fprintln(c.out, "Use 'help <command>' for details.")
}

func usage(command string) error {
	if text, ok := commandHelp[command]; ok {
		return fmt.Errorf("usage: %s", strings.SplitN(text, "\n", 2)[0])
	}
	return fmt.Errorf("invalid arguments")
}

// ParseArgs splits a line on spaces, keeping double-quoted runs together.
func ParseArgs(input string) []string {
	var args []string
	var current strings.Builder
	inQuotes := false

	for _, r := range input {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ' ' && !inQuotes:
			if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		args = append(args, current.String())
	}
	return args
}

var commandHelp = map[string]string{
	"entity": `entity <students|teachers|courses>
Switches the listed collection. The major filter is reset.`,
	"dept": `dept [name]
Filters by department; no name clears the filter. The major filter is reset.`,
	"major": `major [name]
Filters students by major; no name clears the filter.`,
	"search": `search [text]
Filters by free text. The table refreshes once typing pauses.`,
	"show": `show
Prints the filters, the table and any open dialog or chart.`,
	"edit": `edit <id>
Opens the edit dialog for a record of the listed collection.`,
	"new": `new [entity]
Opens an empty dialog for a new record.`,
	"set": `set <field> <value>
Changes a field of the open dialog. Changing the department repopulates majors or teachers.`,
	"save": `save
Submits the open dialog.`,
	"cancel": `cancel
Closes the open dialog without saving.`,
	"delete": `delete <id>
Deletes a record of the listed collection after confirmation.`,
	"chart": `chart [studentsByDepartment|coursesByTeacher]
Shows a chart; no type hides it.`,
	"export": `export <png|pdf|csv> <file>
Saves the chart (png, pdf) or the displayed table (csv).`,
	"audit": `audit [entity] [limit]
Lists recent mutations from the audit trail.`,
	"help": `help [command]
Lists commands or explains one.`,
	"exit": `exit
Leaves the console.`,
}

// ReadlinePrompter asks questions on the console's readline instance.
type ReadlinePrompter struct {
	RL     *readline.Instance
	Prompt string
}

// Ask implements Prompter.
func (p ReadlinePrompter) Ask(question string) (string, error) {
	p.RL.SetPrompt(question)
	defer p.RL.SetPrompt(p.Prompt)
	return p.RL.Readline()
}
