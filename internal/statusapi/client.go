// Package statusapi is a client for the remote status API that owns the
// list of monitored services.
package statusapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"

	"github.com/baditaflorin/go_status_dashboard/internal/models"
)

const (
	// DefaultBaseURL is where the status API listens out of the box.
	DefaultBaseURL = "http://localhost:8080"
	// DefaultTimeout bounds every call when Config.Timeout is zero.
	DefaultTimeout = 5 * time.Second

	maxErrorBody = 256
)

// Operation names reported to the Observer.
const (
	OpList   = "list"
	OpAdd    = "add"
	OpDelete = "delete"
)

// Observer is told about every finished call. outcome is "ok" or the
// error kind.
type Observer interface {
	ObserveCall(op, outcome string, elapsed time.Duration)
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Observer   Observer
	Logger     logrus.FieldLogger
}

// Client talks to the status API.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	observer   Observer
	log        logrus.FieldLogger
}

// NewClient creates a client. Zero values in cfg fall back to defaults.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	log := cfg.Logger
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}

	return &Client{
		baseURL:    baseURL,
		timeout:    timeout,
		httpClient: httpClient,
		observer:   cfg.Observer,
		log:        log,
	}
}

// BaseURL returns the normalised root address of the status API.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// List fetches the current services.
func (c *Client) List(ctx context.Context) (_ []models.ServiceRecord, err error) {
	defer c.observe(OpList, time.Now(), &err)

	resp, err := c.do(ctx, http.MethodGet, "/service", nil)
	if err != nil {
		return nil, classify(errors.Annotate(err, "listing services"), ErrFetchFailed)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, errors.WithType(errors.Annotate(err, "listing services"), ErrFetchFailed)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(errors.Annotate(err, "reading service list"), ErrFetchFailed)
	}
	services, err := decodeList(body)
	if err != nil {
		return nil, errors.WithType(errors.Annotate(err, "decoding service list"), ErrDecodeFailed)
	}
	return services, nil
}

// Add asks the status API to create a service. The answer body is not used.
func (c *Client) Add(ctx context.Context, name, serviceURL string) (err error) {
	defer c.observe(OpAdd, time.Now(), &err)

	payload, err := json.Marshal(models.AddServiceRequest{Name: name, URL: serviceURL})
	if err != nil {
		return errors.WithType(errors.Trace(err), ErrMutationFailed)
	}

	resp, err := c.do(ctx, http.MethodPost, "/service", payload)
	if err != nil {
		return classify(errors.Annotatef(err, "adding service %q", name), ErrMutationFailed)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return errors.WithType(errors.Annotatef(err, "adding service %q", name), ErrMutationFailed)
	}

	var created models.AddServiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err == nil && created.ID != "" {
		c.log.WithField("id", created.ID).Debug("service created")
	}
	return nil
}

// Delete asks the status API to remove the service with the given id.
func (c *Client) Delete(ctx context.Context, id string) (err error) {
	defer c.observe(OpDelete, time.Now(), &err)

	resp, err := c.do(ctx, http.MethodDelete, "/service/"+url.PathEscape(id), nil)
	if err != nil {
		return classify(errors.Annotatef(err, "deleting service %q", id), ErrMutationFailed)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return errors.WithType(errors.Annotatef(err, "deleting service %q", id), ErrMutationFailed)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		cancel()
		return nil, errors.Trace(err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	c.log.WithFields(logrus.Fields{"method": method, "path": path}).Debug("calling status API")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, errors.Trace(err)
	}
	resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

func (c *Client) observe(op string, start time.Time, errp *error) {
	elapsed := time.Since(start)
	outcome := "ok"
	if *errp != nil {
		outcome = string(Kind(*errp))
		c.log.WithFields(logrus.Fields{"op": op, "duration": elapsed}).WithError(*errp).Warn("status API call failed")
	}
	if c.observer != nil {
		c.observer.ObserveCall(op, outcome, elapsed)
	}
}

// cancelBody releases the request context once the body is closed.
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(snippet))
	if msg == "" {
		return errors.Errorf("HTTP %d", resp.StatusCode)
	}
	return errors.Errorf("HTTP %d: %s", resp.StatusCode, msg)
}

// decodeList accepts {"services": [...]} and treats "services": null as an
// empty list. Anything else is malformed.
func decodeList(body []byte) ([]models.ServiceRecord, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, errors.Trace(err)
	}
	raw, ok := envelope["services"]
	if !ok {
		return nil, errors.New(`missing "services" field`)
	}

	var services []models.ServiceRecord
	if err := json.Unmarshal(raw, &services); err != nil {
		return nil, errors.Trace(err)
	}
	if services == nil {
		services = []models.ServiceRecord{}
	}
	return services, nil
}
