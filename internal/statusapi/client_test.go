package statusapi_test

import (
	"context"
	"net/http"
	"sync"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/baditaflorin/go_status_dashboard/internal/models"
	"github.com/baditaflorin/go_status_dashboard/internal/statusapi"
)

type recordedCall struct {
	op      string
	outcome string
}

type fakeObserver struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (f *fakeObserver) ObserveCall(op, outcome string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{op: op, outcome: outcome})
}

var _ = Describe("Client", func() {
	var (
		server   *ghttp.Server
		observer *fakeObserver
		client   *statusapi.Client
		ctx      context.Context
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		observer = &fakeObserver{}
		client = statusapi.NewClient(statusapi.Config{
			BaseURL:  server.URL() + "/",
			Timeout:  time.Second,
			Observer: observer,
		})
		ctx = context.Background()
	})

	AfterEach(func() {
		server.Close()
	})

	It("trims the trailing slash of the base URL", func() {
		Expect(client.BaseURL()).To(Equal(server.URL()))
	})

	It("defaults the base URL", func() {
		Expect(statusapi.NewClient(statusapi.Config{}).BaseURL()).To(Equal("http://localhost:8080"))
	})

	Describe("List", func() {
		Context("when the API returns services", func() {
			BeforeEach(func() {
				server.AppendHandlers(
					ghttp.CombineHandlers(
						ghttp.VerifyRequest("GET", "/service"),
						ghttp.RespondWith(http.StatusOK, `{"services":[
							{"id":"1","name":"svc-a","url":"http://a","status":"up","lastCheck":"12:00"},
							{"id":"2","name":"svc-b","url":"http://b","status":"UNKNOWN","lastCheck":"1970-01-01 00:00"}
						]}`),
					),
				)
			})

			It("decodes every record", func() {
				services, err := client.List(ctx)
				Expect(err).ToNot(HaveOccurred())
				Expect(services).To(Equal([]models.ServiceRecord{
					{ID: "1", Name: "svc-a", URL: "http://a", Status: "up", LastCheck: "12:00"},
					{ID: "2", Name: "svc-b", URL: "http://b", Status: "UNKNOWN", LastCheck: "1970-01-01 00:00"},
				}))
				Expect(observer.calls).To(Equal([]recordedCall{{op: statusapi.OpList, outcome: "ok"}}))
			})
		})

		Context("when the list is null", func() {
			BeforeEach(func() {
				server.AppendHandlers(ghttp.RespondWith(http.StatusOK, `{"services":null}`))
			})

			It("returns an empty list", func() {
				services, err := client.List(ctx)
				Expect(err).ToNot(HaveOccurred())
				Expect(services).To(BeEmpty())
			})
		})

		Context("when the body is not JSON", func() {
			BeforeEach(func() {
				server.AppendHandlers(ghttp.RespondWith(http.StatusOK, `<html>oops</html>`))
			})

			It("fails with ErrDecodeFailed", func() {
				_, err := client.List(ctx)
				Expect(err).To(MatchError(statusapi.ErrDecodeFailed))
				Expect(statusapi.Kind(err)).To(Equal(statusapi.ErrDecodeFailed))
				Expect(observer.calls).To(Equal([]recordedCall{{op: statusapi.OpList, outcome: "malformed response"}}))
			})
		})

		Context("when the services field is missing", func() {
			BeforeEach(func() {
				server.AppendHandlers(ghttp.RespondWith(http.StatusOK, `{"items":[]}`))
			})

			It("fails with ErrDecodeFailed", func() {
				_, err := client.List(ctx)
				Expect(statusapi.Kind(err)).To(Equal(statusapi.ErrDecodeFailed))
				Expect(err.Error()).To(ContainSubstring(`missing "services" field`))
			})
		})

		Context("when the API answers non-2xx", func() {
			BeforeEach(func() {
				server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "boom\n"))
			})

			It("fails with ErrFetchFailed and reports the status", func() {
				_, err := client.List(ctx)
				Expect(statusapi.Kind(err)).To(Equal(statusapi.ErrFetchFailed))
				Expect(err.Error()).To(ContainSubstring("HTTP 500: boom"))
			})
		})

		Context("when the API is unreachable", func() {
			BeforeEach(func() {
				server.Close()
			})

			It("fails with ErrFetchFailed", func() {
				_, err := client.List(ctx)
				Expect(statusapi.Kind(err)).To(Equal(statusapi.ErrFetchFailed))
			})
		})

		Context("when the API is slower than the timeout", func() {
			var release chan struct{}

			BeforeEach(func() {
				release = make(chan struct{})
				server.AppendHandlers(func(w http.ResponseWriter, r *http.Request) {
					select {
					case <-release:
					case <-time.After(2 * time.Second):
					}
				})
				client = statusapi.NewClient(statusapi.Config{
					BaseURL: server.URL(),
					Timeout: 50 * time.Millisecond,
				})
			})

			AfterEach(func() {
				close(release)
			})

			It("fails with ErrTimeout", func() {
				_, err := client.List(ctx)
				Expect(err).To(MatchError(statusapi.ErrTimeout))
				Expect(statusapi.Kind(err)).To(Equal(statusapi.ErrTimeout))
			})
		})
	})

	Describe("Add", func() {
		Context("when the API accepts the service", func() {
			BeforeEach(func() {
				server.AppendHandlers(
					ghttp.CombineHandlers(
						ghttp.VerifyRequest("POST", "/service"),
						ghttp.VerifyHeaderKV("Content-Type", "application/json; charset=utf-8"),
						ghttp.VerifyJSON(`{"name":"svc1","url":"http://x"}`),
						ghttp.RespondWith(http.StatusOK, `{"id":"abc"}`),
					),
				)
			})

			It("issues exactly one POST with the name and url", func() {
				Expect(client.Add(ctx, "svc1", "http://x")).To(Succeed())
				Expect(server.ReceivedRequests()).To(HaveLen(1))
				Expect(observer.calls).To(Equal([]recordedCall{{op: statusapi.OpAdd, outcome: "ok"}}))
			})
		})

		Context("when the API answers with an empty body", func() {
			BeforeEach(func() {
				server.AppendHandlers(ghttp.RespondWith(http.StatusCreated, ""))
			})

			It("still succeeds", func() {
				Expect(client.Add(ctx, "svc1", "http://x")).To(Succeed())
			})
		})

		Context("when the API rejects the service", func() {
			BeforeEach(func() {
				server.AppendHandlers(ghttp.RespondWith(http.StatusBadRequest, "bad url"))
			})

			It("fails with ErrMutationFailed", func() {
				err := client.Add(ctx, "svc1", "http://x")
				Expect(statusapi.Kind(err)).To(Equal(statusapi.ErrMutationFailed))
				Expect(err.Error()).To(ContainSubstring("HTTP 400: bad url"))
			})
		})
	})

	Describe("Delete", func() {
		Context("when the service exists", func() {
			BeforeEach(func() {
				server.AppendHandlers(
					ghttp.CombineHandlers(
						ghttp.VerifyRequest("DELETE", "/service/1"),
						ghttp.RespondWith(http.StatusOK, ""),
					),
				)
			})

			It("issues exactly one DELETE", func() {
				Expect(client.Delete(ctx, "1")).To(Succeed())
				Expect(server.ReceivedRequests()).To(HaveLen(1))
			})
		})

		Context("when the id needs escaping", func() {
			BeforeEach(func() {
				server.AppendHandlers(
					ghttp.CombineHandlers(
						ghttp.VerifyRequest("DELETE", "/service/a b"),
						ghttp.RespondWith(http.StatusOK, ""),
					),
				)
			})

			It("escapes it in the path", func() {
				Expect(client.Delete(ctx, "a b")).To(Succeed())
				Expect(server.ReceivedRequests()[0].URL.EscapedPath()).To(Equal("/service/a%20b"))
			})
		})

		Context("when the service is unknown", func() {
			BeforeEach(func() {
				server.AppendHandlers(ghttp.RespondWith(http.StatusNotFound, ""))
			})

			It("fails with ErrMutationFailed", func() {
				err := client.Delete(ctx, "nope")
				Expect(err).To(MatchError(statusapi.ErrMutationFailed))
				Expect(err.Error()).To(ContainSubstring("HTTP 404"))
				Expect(observer.calls).To(Equal([]recordedCall{{op: statusapi.OpDelete, outcome: "mutation failed"}}))
			})
		})
	})
})

var _ = Describe("Client mutations slower than the timeout", func() {
	var (
		server  *ghttp.Server
		release chan struct{}
		client  *statusapi.Client
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		release = make(chan struct{})
		server.AppendHandlers(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-time.After(2 * time.Second):
			}
		})
		client = statusapi.NewClient(statusapi.Config{
			BaseURL: server.URL(),
			Timeout: 50 * time.Millisecond,
		})
	})

	AfterEach(func() {
		close(release)
		server.Close()
	})

	It("fails Add with ErrTimeout rather than ErrMutationFailed", func() {
		err := client.Add(context.Background(), "svc1", "http://x")
		Expect(err).To(MatchError(statusapi.ErrTimeout))
		Expect(statusapi.Kind(err)).To(Equal(statusapi.ErrTimeout))
	})

	It("fails Delete with ErrTimeout rather than ErrMutationFailed", func() {
		err := client.Delete(context.Background(), "7")
		Expect(err).To(MatchError(statusapi.ErrTimeout))
		Expect(statusapi.Kind(err)).To(Equal(statusapi.ErrTimeout))
	})
})
