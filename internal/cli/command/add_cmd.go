package command

import (
	"context"

	"github.com/juju/errors"
)

type AddCmd struct {
	APIOptions

	Name string `long:"name" required:"true" description:"Display name of the service"`
	URL  string `long:"url" required:"true" description:"URL the status API should check"`
}

// Execute adds the service and prints the list as fetched afterwards. A
// failure to fetch that list is printed but does not fail the command.
func (o *AddCmd) Execute(args []string) error {
	v, err := o.view()
	if err != nil {
		return err
	}

	page, err := v.AddService(context.Background(), o.Name, o.URL)
	if err != nil {
		return page.Dialog.Error
	}
	return errors.Trace(o.print(page))
}
