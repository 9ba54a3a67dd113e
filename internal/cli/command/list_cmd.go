package command

import (
	"context"

	"github.com/juju/errors"
)

type ListCmd struct {
	APIOptions
}

func (o *ListCmd) Execute(args []string) error {
	v, err := o.view()
	if err != nil {
		return err
	}

	page := v.FetchAndRender(context.Background())
	if page.Error != nil {
		return page.Error
	}
	return errors.Trace(o.print(page))
}
