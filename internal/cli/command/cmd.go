package command

import (
	"io"
	"os"
	"time"

	"github.com/juju/errors"

	"github.com/baditaflorin/go_status_dashboard/internal/logging"
	"github.com/baditaflorin/go_status_dashboard/internal/statusapi"
	"github.com/baditaflorin/go_status_dashboard/internal/view"
)

type Commands struct {
	List   ListCmd   `command:"list" description:"Show the monitored services"`
	Add    AddCmd    `command:"add" description:"Add a service"`
	Delete DeleteCmd `command:"delete" description:"Delete a service"`
	Import ImportCmd `command:"import" description:"Add every service listed in a JSON or YAML file"`
}

// APIOptions are shared by every command.
type APIOptions struct {
	API     string        `long:"api" env:"STATUS_API_URL" default:"http://localhost:8080" description:"Base URL of the status API"`
	Timeout time.Duration `long:"timeout" env:"STATUS_API_TIMEOUT" default:"5s" description:"Timeout of each status API call"`
	Verbose bool          `short:"v" long:"verbose" description:"Log status API calls to stderr"`

	Out io.Writer
}

func (o *APIOptions) view() (*view.View, error) {
	level := "error"
	if o.Verbose {
		level = "debug"
	}
	log, err := logging.New(os.Stderr, level, logging.FormatText)
	if err != nil {
		return nil, errors.Trace(err)
	}

	client := statusapi.NewClient(statusapi.Config{
		BaseURL: o.API,
		Timeout: o.Timeout,
		Logger:  log,
	})
	return view.New(view.Config{API: client, Logger: log}), nil
}

func (o *APIOptions) output() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}
	return o.Out
}

func (o *APIOptions) print(page view.Page) error {
	return view.TableRenderer{}.Render(o.output(), page)
}
