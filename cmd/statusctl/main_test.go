package main_test

import (
	"net/http"
	"os/exec"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"
	"github.com/onsi/gomega/gexec"
	"github.com/onsi/gomega/ghttp"

	"github.com/baditaflorin/go_status_dashboard/internal/models"
)

var _ = Describe("Main", func() {
	Describe("flags", func() {
		It("exits 0 and prints usage on --help", func() {
			cmd := exec.Command(pathToCli, "--help")
			session, err := gexec.Start(cmd, GinkgoWriter, GinkgoWriter)
			Expect(err).NotTo(HaveOccurred())

			Eventually(session).Should(gexec.Exit(0))
			Expect(session.Out).To(gbytes.Say("Usage"))
		})

		It("exits 0 on help for a subcommand", func() {
			cmd := exec.Command(pathToCli, "import", "--help")
			session, err := gexec.Start(cmd, GinkgoWriter, GinkgoWriter)
			Expect(err).NotTo(HaveOccurred())

			Eventually(session).Should(gexec.Exit(0))
		})

		It("exits 1 if no command is provided", func() {
			cmd := exec.Command(pathToCli)
			session, err := gexec.Start(cmd, GinkgoWriter, GinkgoWriter)
			Expect(err).NotTo(HaveOccurred())

			Eventually(session).Should(gexec.Exit(1))
		})

		It("exits 1 on an unknown command", func() {
			cmd := exec.Command(pathToCli, "explode")
			session, err := gexec.Start(cmd, GinkgoWriter, GinkgoWriter)
			Expect(err).NotTo(HaveOccurred())

			Eventually(session).Should(gexec.Exit(1))
			Expect(session.Err).To(gbytes.Say("Unknown command"))
		})
	})

	Describe("list", func() {
		var server *ghttp.Server

		BeforeEach(func() {
			server = ghttp.NewServer()
		})

		AfterEach(func() {
			server.Close()
		})

		It("renders the services", func() {
			server.AppendHandlers(
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("GET", "/service"),
					ghttp.RespondWithJSONEncoded(http.StatusOK, models.ServiceList{Services: []models.ServiceRecord{
						{ID: "7", Name: "billing", URL: "http://billing.internal", Status: "UP", LastCheck: "2024-05-01 10:00"},
					}}),
				),
			)

			cmd := exec.Command(pathToCli, "list", "--api", server.URL())
			session, err := gexec.Start(cmd, GinkgoWriter, GinkgoWriter)
			Expect(err).NotTo(HaveOccurred())

			Eventually(session).Should(gexec.Exit(0), string(session.Err.Contents()))
			Expect(session.Out).To(gbytes.Say(`billing\s+http://billing\.internal\s+UP`))
		})

		It("exits 1 when the status API fails", func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "boom"))

			cmd := exec.Command(pathToCli, "list", "--api", server.URL())
			session, err := gexec.Start(cmd, GinkgoWriter, GinkgoWriter)
			Expect(err).NotTo(HaveOccurred())

			Eventually(session).Should(gexec.Exit(1))
			Expect(session.Err).To(gbytes.Say("Could not load services"))
		})
	})
})
