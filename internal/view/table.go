package view

import (
	"fmt"
	"io"

	"github.com/gosuri/uitable"
	"github.com/juju/errors"
)

// TableRenderer draws a Page as a plain text table for terminals.
type TableRenderer struct {
	MaxColWidth uint
}

// Render writes page to w. The error banner, if any, goes first.
func (r TableRenderer) Render(w io.Writer, page Page) error {
	if page.Error != nil {
		if _, err := fmt.Fprintf(w, "error: %s\n", page.Error.Message); err != nil {
			return errors.Trace(err)
		}
	}
	if page.Dialog.Error != nil {
		if _, err := fmt.Fprintf(w, "error: %s\n", page.Dialog.Error.Message); err != nil {
			return errors.Trace(err)
		}
	}

	table := uitable.New()
	table.MaxColWidth = r.MaxColWidth
	if table.MaxColWidth == 0 {
		table.MaxColWidth = 60
	}
	table.AddRow("NAME", "URL", "STATUS", "LAST CHECK", "ID")
	for _, svc := range page.Services {
		table.AddRow(svc.Name, svc.URL, svc.Status, svc.LastCheck, svc.ID)
	}

	_, err := fmt.Fprintln(w, table)
	return errors.Trace(err)
}
