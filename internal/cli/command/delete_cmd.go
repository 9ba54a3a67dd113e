package command

import (
	"context"

	"github.com/juju/errors"
)

type DeleteCmd struct {
	APIOptions

	Args struct {
		ID string `positional-arg-name:"ID" description:"Identifier of the service"`
	} `positional-args:"yes" required:"yes"`
}

func (o *DeleteCmd) Execute(args []string) error {
	if o.Args.ID == "" {
		return errors.NotValidf("empty service ID")
	}

	v, err := o.view()
	if err != nil {
		return err
	}

	page, err := v.DeleteService(context.Background(), o.Args.ID)
	if err != nil {
		return page.Error
	}
	return errors.Trace(o.print(page))
}
