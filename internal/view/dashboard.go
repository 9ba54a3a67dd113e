// Package view implements the service dashboard: it fetches the service list
// from the status API, turns it into a Page and performs add and delete
// actions, re-fetching the list after each successful one.
//
// A View holds no authoritative data. It remembers the last list it fetched
// successfully only so that a failed fetch can still show something.
package view

import (
	"context"
	"io"
	"sync"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"

	"github.com/baditaflorin/go_status_dashboard/internal/models"
	"github.com/baditaflorin/go_status_dashboard/internal/statusapi"
)

// ErrActionPending is returned when an action is triggered again while the
// previous trigger of the same action is still in flight. No request is
// issued in that case.
const ErrActionPending = errors.ConstError("action already in progress")

// AddKey is the pending key of the add action.
const AddKey = "add"

// DeleteKey is the pending key of deleting the service with the given id.
func DeleteKey(id string) string {
	return "delete:" + id
}

// ServiceAPI is the part of the status API the dashboard uses.
type ServiceAPI interface {
	List(ctx context.Context) ([]models.ServiceRecord, error)
	Add(ctx context.Context, name, url string) error
	Delete(ctx context.Context, id string) error
}

// Config configures a View.
type Config struct {
	API    ServiceAPI
	Logger logrus.FieldLogger
	// OnChange is called after every successful add or delete.
	OnChange func()
}

// View is one dashboard instance. It is safe for concurrent use.
type View struct {
	api      ServiceAPI
	log      logrus.FieldLogger
	onChange func()

	// mutate serialises add/delete together with their follow-up fetch.
	mutate sync.Mutex

	mu       sync.Mutex
	last     []models.ServiceRecord
	loaded   bool
	started  uint64
	applied  uint64
	inFlight map[string]struct{}
}

// New creates a View.
func New(cfg Config) *View {
	log := cfg.Logger
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	return &View{
		api:      cfg.API,
		log:      log,
		onChange: cfg.OnChange,
		inFlight: make(map[string]struct{}),
	}
}

// FetchAndRender fetches the service list and returns the page showing it.
// On failure the page keeps the rows of the last successful fetch and
// carries the error.
func (v *View) FetchAndRender(ctx context.Context) Page {
	v.mu.Lock()
	v.started++
	seq := v.started
	v.mu.Unlock()

	services, err := v.api.List(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()

	if err != nil {
		v.log.WithError(err).Warn("fetching services failed")
		page := v.pageLocked()
		page.Error = newPageError(err, "Could not load services")
		return page
	}

	// A slower fetch that started earlier must not overwrite a newer list.
	if seq > v.applied {
		v.last = services
		v.loaded = true
		v.applied = seq
	}
	return v.pageLocked()
}

// AddService creates a service and, on success, returns a freshly fetched
// page with the add dialog closed and its fields cleared. On failure the
// returned page keeps the dialog open with name and url preserved.
func (v *View) AddService(ctx context.Context, name, url string) (Page, error) {
	dialog := Dialog{Open: true, Name: name, URL: url}

	if !v.begin(AddKey) {
		page := v.Current()
		page.Dialog = dialog
		page.Dialog.Error = newPageError(ErrActionPending, "Could not add service")
		return page, ErrActionPending
	}

	v.mutate.Lock()
	defer v.mutate.Unlock()

	err := v.api.Add(ctx, name, url)
	v.end(AddKey)
	if err != nil {
		v.log.WithFields(logrus.Fields{"name": name, "url": url}).WithError(err).Warn("adding service failed")
		page := v.Current()
		page.Dialog = dialog
		page.Dialog.Error = newPageError(err, "Could not add service")
		return page, errors.Trace(err)
	}

	v.log.WithFields(logrus.Fields{"name": name, "url": url}).Info("service added")
	v.changed()
	return v.FetchAndRender(ctx), nil
}

// DeleteService removes the service with the given id and, on success,
// returns a freshly fetched page. On failure the last rows stay and the
// page carries the error.
func (v *View) DeleteService(ctx context.Context, id string) (Page, error) {
	key := DeleteKey(id)
	if !v.begin(key) {
		page := v.Current()
		page.Error = newPageError(ErrActionPending, "Could not delete service")
		return page, ErrActionPending
	}

	v.mutate.Lock()
	defer v.mutate.Unlock()

	err := v.api.Delete(ctx, id)
	v.end(key)
	if err != nil {
		v.log.WithField("id", id).WithError(err).Warn("deleting service failed")
		page := v.Current()
		page.Error = newPageError(err, "Could not delete service")
		return page, errors.Trace(err)
	}

	v.log.WithField("id", id).Info("service deleted")
	v.changed()
	return v.FetchAndRender(ctx), nil
}

// Current returns the page for the last successful fetch without calling
// the status API.
func (v *View) Current() Page {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pageLocked()
}

func (v *View) pageLocked() Page {
	page := Page{
		Services: append([]models.ServiceRecord(nil), v.last...),
		Loaded:   v.loaded,
	}
	if len(v.inFlight) > 0 {
		page.Pending = make(map[string]bool, len(v.inFlight))
		for key := range v.inFlight {
			page.Pending[key] = true
		}
	}
	return page
}

func (v *View) begin(key string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, busy := v.inFlight[key]; busy {
		v.log.WithField("action", key).Debug("ignoring re-entrant trigger")
		return false
	}
	v.inFlight[key] = struct{}{}
	return true
}

func (v *View) end(key string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.inFlight, key)
}

func (v *View) changed() {
	if v.onChange != nil {
		v.onChange()
	}
}

// kindOf names the error kind for templates and tests.
func kindOf(err error) string {
	if errors.Is(err, ErrActionPending) {
		return "pending"
	}
	switch statusapi.Kind(err) {
	case statusapi.ErrTimeout:
		return "timeout"
	case statusapi.ErrDecodeFailed:
		return "decode"
	case statusapi.ErrMutationFailed:
		return "mutation"
	case statusapi.ErrFetchFailed:
		return "fetch"
	}
	return "unknown"
}
