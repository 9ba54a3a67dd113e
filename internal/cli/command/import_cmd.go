package command

import (
	"context"
	"fmt"

	"github.com/juju/errors"

	"github.com/baditaflorin/go_status_dashboard/internal/config"
	"github.com/baditaflorin/go_status_dashboard/internal/view"
)

type ImportCmd struct {
	APIOptions

	Args struct {
		File string `positional-arg-name:"FILE" description:"JSON or YAML file with the services to add"`
	} `positional-args:"yes" required:"yes"`
}

// Execute adds the services in file order and stops at the first one the
// status API rejects. Services added before that stay.
func (o *ImportCmd) Execute(args []string) error {
	seed, err := config.LoadSeed(o.Args.File)
	if err != nil {
		return err
	}

	v, err := o.view()
	if err != nil {
		return err
	}

	ctx := context.Background()
	var page view.Page
	for i, svc := range seed {
		if page, err = v.AddService(ctx, svc.Name, svc.URL); err != nil {
			return errors.Annotatef(err, "importing %q (%d of %d)", svc.Name, i+1, len(seed))
		}
	}
	if len(seed) == 0 {
		page = v.FetchAndRender(ctx)
	}

	if err := o.print(page); err != nil {
		return errors.Trace(err)
	}
	_, err = fmt.Fprintf(o.output(), "imported %d services\n", len(seed))
	return errors.Trace(err)
}
