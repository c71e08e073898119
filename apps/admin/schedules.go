package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/timegrid"
)

// scheduleFile is the import/export document.
type scheduleFile struct {
	Schedules []schedule.Schedule `yaml:"schedules"`
}

type importFile struct {
	Schedules []schedule.NewSchedule `yaml:"schedules"`
}

// importSchedules creates every schedule in path, or none when one is invalid.
func (cli *commandLine) importSchedules(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading import file")
	}
	var doc importFile
	if err = yaml.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(err, "parsing import file")
	}

	var problems []string
	for i := range doc.Schedules {
		if err := doc.Schedules[i].Validate(cli.validate); err != nil {
			problems = append(problems, fmt.Sprintf("schedule #%d: %s", i+1, cli.describeErr(err)))
		}
	}
	if len(problems) > 0 {
		return errors.New("invalid schedules, nothing imported:\n  " + strings.Join(problems, "\n  "))
	}

	ctx := context.Background()
	for i, ns := range doc.Schedules {
		if _, err := cli.schedSvc.Create(ctx, ns); err != nil {
			return errors.Wrapf(err, "creating schedule #%d", i+1)
		}
	}
	fmt.Fprintf(cli.out, "imported %d schedules\n", len(doc.Schedules))
	return nil
}

func (cli *commandLine) describeErr(err error) string {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		fields := core.TranslateErrors(vErrs, cli.translator)
		msgs := make([]string, 0, len(fields))
		for field, msg := range fields {
			msgs = append(msgs, field+": "+msg)
		}
		sort.Strings(msgs)
		return strings.Join(msgs, "; ")
	}
	return err.Error()
}

// exportSchedules writes every schedule to path, or to cli.out when path is empty.
func (cli *commandLine) exportSchedules(path string) error {
	list, err := cli.schedSvc.Query(context.Background(), schedule.QueryFilter{})
	if err != nil {
		return errors.Wrap(err, "querying schedules")
	}
	if list == nil {
		list = []schedule.Schedule{}
	}

	var w io.Writer = cli.out
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrap(err, "creating export file")
		}
		defer f.Close()
		w = f
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err = enc.Encode(scheduleFile{Schedules: list}); err != nil {
		return errors.Wrap(err, "encoding schedules")
	}
	if err = enc.Close(); err != nil {
		return errors.Wrap(err, "encoding schedules")
	}
	if path != "" {
		fmt.Fprintf(cli.out, "exported %d schedules to %s\n", len(list), path)
	}
	return nil
}

// printGrid renders the reconciled grid as a text table.
func (cli *commandLine) printGrid(filter schedule.QueryFilter) error {
	view, err := cli.schedSvc.Grid(context.Background(), filter)
	if err != nil {
		return errors.Wrap(err, "building grid")
	}

	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	header := []string{"TIME"}
	for _, day := range view.Days {
		header = append(header, strings.ToUpper(day))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for i, row := range view.Rows {
		cols := []string{row.Slot.Label}
		for d := range view.Days {
			cols = append(cols, cellText(view.Cell(i, d)))
		}
		fmt.Fprintln(tw, strings.Join(cols, "\t"))
	}
	if err = tw.Flush(); err != nil {
		return err
	}

	for _, r := range view.Rejected {
		fmt.Fprintf(cli.out, "not shown: %s (%q: %s)\n", r.ID, r.Time, r.Reason)
	}
	for _, c := range view.Conflicts {
		fmt.Fprintf(cli.out, "conflict on %s: %s overlaps %s\n", c.Day, c.First.Subject, c.Second.Subject)
	}
	return nil
}

func cellText(cell timegrid.Cell) string {
	switch cell.Kind {
	case timegrid.CellBlockStart:
		text := cell.Entry.Subject
		if cell.Entry.Room != "" {
			text += " @" + cell.Entry.Room
		}
		return text
	case timegrid.CellCovered:
		return "|"
	default:
		return "."
	}
}
