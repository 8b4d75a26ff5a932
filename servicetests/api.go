package servicetests

import (
	"context"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/transportpce/servicehandler-tests/framework"
	"github.com/transportpce/servicehandler-tests/restconf"
	"github.com/transportpce/servicehandler-tests/servicedef"
)

type environment struct {
	ctx         context.Context
	harness     *framework.TestHarness
	settleScale float64
}

// T represents a test or subtest in the service handler test suite.
//
// It behaves like Go's testing.T, so it can be passed to the assert and require packages, but it
// runs outside of the Go test runner and keeps per-test debug output. On top of that it knows how
// to reach the controller: every RESTCONF exchange made through T is written to the test's debug
// output, and so is any notification the controller sent while the test was running.
type T struct {
	context *framework.Context
	env     *environment
}

// Errorf is called by assertions to log a test failure. It does not cause an immediate exit.
func (t *T) Errorf(format string, args ...interface{}) {
	t.context.Errorf(format, args...)
}

// FailNow is called by assertions when a test should fail and immediately exit. The methods in
// the require package call FailNow.
func (t *T) FailNow() {
	t.context.FailNow()
}

// Run runs a test step. This is equivalent to the Run method of testing.T.
//
// The step fails right away if the controller process is no longer running.
func (t *T) Run(name string, action func(*T)) {
	t.context.Run(name, t.scoped(action))
}

// Group runs a named set of steps. Filters select the steps inside it, never the group itself.
func (t *T) Group(name string, action func(*T)) {
	t.context.Group(name, t.scoped(action))
}

func (t *T) scoped(action func(*T)) func(*framework.Context) {
	return func(c *framework.Context) {
		t1 := &T{context: c, env: t.env}
		c.Defer(t1.logNotifications)
		t1.requireControllerRunning()
		action(t1)
	}
}

// Debug logs some debug output for the test. The output will be passed to the test logger at
// the end of the test.
func (t *T) Debug(format string, args ...interface{}) {
	t.context.Debug(format, args...)
}

// Skip stops the test and reports it as skipped, with a reason.
func (t *T) Skip(reason string) {
	t.context.SkipWithReason(reason)
}

func (t *T) requireControllerRunning() {
	select {
	case <-t.env.harness.ControllerExited():
		require.Fail(t, "controller process is no longer running")
	default:
	}
}

func (t *T) logNotifications() {
	sink := t.env.harness.Notifications()
	if sink == nil {
		return
	}
	for _, n := range sink.Drain() {
		t.Debug("Notification from controller: %s", string(n.Body))
	}
}

// Settle waits for the controller to catch up after a request. The delay is scaled by the
// suite's settle factor, and the test fails if the controller exits in the meantime.
func (t *T) Settle(seconds float64) {
	d := time.Duration(seconds * t.env.settleScale * float64(time.Second))
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-t.env.harness.ControllerExited():
		require.Fail(t, "controller process exited while the test was waiting for it")
	case <-t.env.ctx.Done():
		require.Fail(t, "test run was cancelled")
	}
}

// NotificationURL is the notification URL to send in request headers.
func (t *T) NotificationURL() string {
	return t.env.harness.NotificationURL()
}

func (t *T) restconf() *restconf.Client {
	return t.env.harness.Restconf(t.context.DebugLogger())
}

// RequireGet reads a RESTCONF resource. The test fails and exits if the request cannot be made;
// the status is not checked.
func (t *T) RequireGet(path string) *restconf.Response {
	resp, err := t.restconf().Get(t.env.ctx, path)
	require.NoError(t, err)
	return resp
}

// RequirePutXML replaces a RESTCONF resource with an XML document and requires a 200 status.
func (t *T) RequirePutXML(path string, body []byte) *restconf.Response {
	resp, err := t.restconf().PutXML(t.env.ctx, path, body)
	require.NoError(t, err)
	RequireStatus(t, resp, 200)
	return resp
}

// RequireServiceRPC invokes a service handler RPC and requires a 200 status. Validation errors
// are reported by the controller in the response message, not in the status.
func (t *T) RequireServiceRPC(rpc string, input interface{}) *restconf.Response {
	resp, err := t.restconf().InvokeRPC(t.env.ctx, servicedef.ServiceModule, rpc, input)
	require.NoError(t, err)
	RequireStatus(t, resp, 200)
	return resp
}

// RequireStatus fails and exits the test if the response does not have the expected status.
func RequireStatus(t require.TestingT, resp *restconf.Response, status int) {
	require.Equal(t, status, resp.StatusCode, "unexpected status for %s %s; body: %s",
		resp.Method, resp.URL, string(resp.Body))
}

// RequireString reads a string field from the JSON body. The test fails and exits if the field
// is missing or is not a string.
func RequireString(t require.TestingT, resp *restconf.Response, path ...interface{}) string {
	v := resp.Path(path...)
	require.Equal(t, ldvalue.StringType, v.Type(), "expected a string at %v in response: %s", path, string(resp.Body))
	return v.StringValue()
}

// AssertResponseMessageContains checks the configuration-response-common message of an RPC.
func AssertResponseMessageContains(t require.TestingT, resp *restconf.Response, text string) {
	message := RequireString(t, resp, servicedef.ResponseMessagePath...)
	assert.Contains(t, message, text)
}
