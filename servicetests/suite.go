package servicetests

import (
	"context"

	"github.com/transportpce/servicehandler-tests/framework"
)

const (
	DefaultTopologyFile = "sample_configs/honeynode-topo.xml"
	DefaultSettleScale  = 1.0
)

// SuiteOptions controls how the scenario is run against the controller.
type SuiteOptions struct {
	// TopologyFile is the honeynode topology to load. If it does not exist, the load step is
	// skipped and the rest of the suite expects the topology to be there already.
	TopologyFile string

	// SettleScale multiplies the delays between steps; 0 disables them.
	SettleScale float64
}

// RunTestSuite runs the whole scenario once. The steps depend on each other and run in order.
func RunTestSuite(
	ctx context.Context,
	harness *framework.TestHarness,
	filter framework.Filter,
	testLogger framework.TestLogger,
	opts SuiteOptions,
) framework.Results {
	if opts.TopologyFile == "" {
		opts.TopologyFile = DefaultTopologyFile
	}
	env := &environment{
		ctx:         ctx,
		harness:     harness,
		settleScale: opts.SettleScale,
	}
	return framework.Run(filter, testLogger, func(c *framework.Context) {
		t := &T{context: c, env: env}
		t.Group("service handler", func(t *T) {
			t.Group("RESTCONF API", DoRestconfAPITests)
			t.Group("topology", func(t *T) { DoTopologyTests(t, opts.TopologyFile) })
			t.Group("create", DoServiceCreateTests)
			t.Group("query", DoServiceQueryTests)
			t.Group("delete", DoServiceDeleteTests)
		})
	})
}
