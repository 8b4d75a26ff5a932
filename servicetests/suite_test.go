package servicetests_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/transportpce/servicehandler-tests/framework"
	"github.com/transportpce/servicehandler-tests/restconf"
	"github.com/transportpce/servicehandler-tests/servicetests"
)

const topologyXML = `<?xml version="1.0" encoding="UTF-8"?>
<network xmlns="urn:ietf:params:xml:ns:yang:ietf-network">
  <network-id>openroadm-topology</network-id>
</network>
`

// recordingLogger keeps the outcome and debug output of every finished test.
type recordingLogger struct {
	lock     sync.Mutex
	finished map[string]bool
	skipped  map[string]string
	debug    map[string]framework.CapturedOutput
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{
		finished: make(map[string]bool),
		skipped:  make(map[string]string),
		debug:    make(map[string]framework.CapturedOutput),
	}
}

func (r *recordingLogger) TestStarted(framework.TestID)      {}
func (r *recordingLogger) TestError(framework.TestID, error) {}

func (r *recordingLogger) TestFinished(id framework.TestID, failed bool, debugOutput framework.CapturedOutput) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.finished[id.String()] = failed
	r.debug[id.String()] = debugOutput
}

func (r *recordingLogger) TestSkipped(id framework.TestID, reason string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.skipped[id.String()] = reason
}

func (r *recordingLogger) debugText(id string) string {
	r.lock.Lock()
	defer r.lock.Unlock()
	var lines []string
	for _, m := range r.debug[id] {
		lines = append(lines, m.Message)
	}
	return strings.Join(lines, "\n")
}

func failedIDs(results framework.Results) []string {
	var ids []string
	for _, f := range results.Failures {
		ids = append(ids, f.TestID.String())
	}
	return ids
}

var _ = Describe("Service handler scenario", func() {
	var (
		ctx          context.Context
		controller   *fakeController
		harness      *framework.TestHarness
		logger       *recordingLogger
		topologyFile string
		opts         framework.HarnessOptions
	)

	BeforeEach(func() {
		ctx = context.Background()
		controller = newFakeController()
		DeferCleanup(controller.close)

		logger = newRecordingLogger()
		topologyFile = filepath.Join(GinkgoT().TempDir(), "honeynode-topo.xml")
		Expect(os.WriteFile(topologyFile, []byte(topologyXML), 0o600)).To(Succeed())

		opts = framework.HarnessOptions{
			Restconf: restconf.Config{
				BaseURL:  controller.baseURL(),
				Username: restconf.DefaultUsername,
				Password: restconf.DefaultPassword,
			},
		}
	})

	JustBeforeEach(func() {
		var err error
		harness, err = framework.NewTestHarness(ctx, opts, nil, GinkgoWriter)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			Expect(harness.Close(context.Background())).To(Succeed())
		})
	})

	run := func(filter framework.Filter) framework.Results {
		return servicetests.RunTestSuite(ctx, harness, filter, logger, servicetests.SuiteOptions{
			TopologyFile: topologyFile,
		})
	}

	Context("against a healthy controller", func() {
		It("passes every step in order", func() {
			results := run(nil)

			Expect(failedIDs(results)).To(BeEmpty())
			Expect(results.OK()).To(BeTrue())
			passed, failed, skipped := results.Counts()
			Expect(failed).To(BeZero())
			Expect(skipped).To(BeZero())
			Expect(passed).To(Equal(13))

			for _, id := range []string{
				"service handler/RESTCONF API/controller connected",
				"service handler/topology/load honeynode topology",
				"service handler/topology/link XPDRA-XPDR1-XPDR1-NETWORK1toROADMA-SRG1-SRG1-PP1-TXRX",
				"service handler/topology/link XPDRC-XPDR1-XPDR1-NETWORK1toROADMC-SRG1-SRG1-PP1-TXRX",
				"service handler/topology/link ROADMA-SRG1-SRG1-PP1-TXRXtoXPDRA-XPDR1-XPDR1-NETWORK1",
				"service handler/topology/link ROADMC-SRG1-SRG1-PP1-TXRXtoXPDRC-XPDR1-XPDR1-NETWORK1",
				"service handler/create/valid service",
				"service handler/create/missing request header",
				"service handler/create/missing a-end tx-direction",
				"service handler/query/existing service",
				"service handler/query/nonexistent service",
				"service handler/delete/existing service",
				"service handler/delete/service is gone",
			} {
				Expect(logger.finished).To(HaveKeyWithValue(id, false))
			}

			Expect(string(controller.receivedTopology())).To(Equal(topologyXML))
			Expect(controller.receivedRequests("GET", linkPrefix)).To(Equal(4))
			Expect(controller.receivedRequests("POST", "/restconf/operations/")).To(Equal(4))
		})

		It("writes each RESTCONF exchange to the debug output of its step", func() {
			run(nil)
			Expect(logger.debugText("service handler/query/nonexistent service")).To(And(
				ContainSubstring("GET "+controller.baseURL()+"/operational/org-openroadm-service:service-list/services/test1"),
				ContainSubstring("Response 404"),
			))
		})

		It("leaves out the steps excluded by the filter", func() {
			var filters framework.RegexFilters
			Expect(filters.MustNotMatch.Set("topology")).To(Succeed())
			results := run(filters.AsFilter)

			Expect(results.OK()).To(BeTrue())
			Expect(controller.receivedTopology()).To(BeNil())
			Expect(logger.skipped).To(HaveKey("service handler/topology/load honeynode topology"))
			Expect(controller.receivedRequests("GET", linkPrefix)).To(BeZero())
			Expect(logger.finished).To(HaveKeyWithValue("service handler/delete/service is gone", false))
		})

		It("runs a single step selected by name", func() {
			var filters framework.RegexFilters
			Expect(filters.MustMatch.Set("valid service")).To(Succeed())
			results := run(filters.AsFilter)

			Expect(results.OK()).To(BeTrue())
			Expect(results.Tests).To(HaveLen(1))
			Expect(results.Tests[0].TestID.String()).To(Equal("service handler/create/valid service"))
			Expect(controller.receivedRequests("POST", "/restconf/operations/")).To(Equal(1))
			Expect(controller.receivedRequests("GET", "/restconf/")).To(BeZero())
			Expect(logger.skipped).To(HaveKeyWithValue("service handler/create/missing request header",
				"excluded by filter parameters"))
		})

		It("runs every step of a group selected by name", func() {
			var filters framework.RegexFilters
			Expect(filters.MustMatch.Set("create")).To(Succeed())
			results := run(filters.AsFilter)

			Expect(results.OK()).To(BeTrue())
			passed, _, _ := results.Counts()
			Expect(passed).To(Equal(3))
		})
	})

	Context("without a topology file", func() {
		BeforeEach(func() {
			Expect(os.Remove(topologyFile)).To(Succeed())
		})

		It("skips the topology load and runs the rest", func() {
			results := run(nil)

			Expect(results.OK()).To(BeTrue())
			Expect(logger.skipped).To(HaveKeyWithValue("service handler/topology/load honeynode topology",
				ContainSubstring("not found")))
			Expect(controller.receivedRequests("PUT", "/restconf/config/")).To(BeZero())
			Expect(controller.receivedRequests("GET", linkPrefix)).To(Equal(4))
		})
	})

	Context("with a malformed topology file", func() {
		BeforeEach(func() {
			Expect(os.WriteFile(topologyFile, []byte("<network><node></network>"), 0o600)).To(Succeed())
		})

		It("fails the load step without sending the file", func() {
			results := run(nil)

			Expect(failedIDs(results)).To(ConsistOf("service handler/topology/load honeynode topology"))
			Expect(controller.receivedRequests("PUT", "/restconf/config/")).To(BeZero())
		})
	})

	Context("when the controller is not connected", func() {
		BeforeEach(func() {
			controller.setConnectionStatus("connecting")
		})

		It("fails the RESTCONF API step", func() {
			results := run(nil)

			Expect(failedIDs(results)).To(ConsistOf("service handler/RESTCONF API/controller connected"))
			Expect(results.Failures[0].Errors[0].Error()).To(ContainSubstring("connecting"))
		})
	})

	Context("when the controller does not render the service", func() {
		BeforeEach(func() {
			controller.setCreateFailure("Service rendering failed")
		})

		It("fails the create step and the steps that need the service", func() {
			results := run(nil)

			Expect(failedIDs(results)).To(ConsistOf(
				"service handler/create/valid service",
				"service handler/query/existing service",
				"service handler/delete/existing service",
			))
			Expect(results.Failures[0].Errors[0].Error()).To(And(
				ContainSubstring("Service rendering failed"),
				ContainSubstring("Service rendered successfully !"),
			))
			Expect(logger.finished).To(HaveKeyWithValue("service handler/delete/service is gone", false))
		})
	})

	Context("when a deleted service is still there", func() {
		BeforeEach(func() {
			controller.setKeepDeleted(true)
		})

		It("fails the final check", func() {
			results := run(nil)

			Expect(failedIDs(results)).To(ConsistOf("service handler/delete/service is gone"))
			Expect(results.Failures[0].Errors[0].Error()).To(And(
				ContainSubstring("404"),
				ContainSubstring("200"),
			))
		})
	})

	Context("with the notification sink enabled", func() {
		BeforeEach(func() {
			opts.NotificationsPort = ldvalue.NewOptionalInt(0)
		})

		It("shows notifications in the debug output of the step that caused them", func() {
			results := run(nil)

			Expect(results.OK()).To(BeTrue())
			Expect(harness.NotificationURL()).To(HaveSuffix(framework.NotificationPath))
			Expect(logger.debugText("service handler/create/valid service")).To(
				ContainSubstring(`Notification from controller: {"service-name":"test","notification-type":"service-create-result"}`))
		})
	})
})
