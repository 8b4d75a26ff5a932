// Package framework contains the test harness infrastructure that is not specific to the service
// handler scenario.
//
// The general model is:
//
// 1. The test harness owns the controller under test. It either starts the controller process
// itself or attaches to one that is already running, and it stops it again at the end of the run.
//
// 2. The harness talks to the controller only through its RESTCONF interface, and it exposes a
// notification sink so that the controller has somewhere to post its asynchronous notifications.
//
// 3. There is a general notion of a test context which is similar to Go's *testing.T,
// allowing pieces of test logic to be associated with a test identifier and to accumulate
// success/failure results.
//
// The domain-specific code that knows what is being tested is responsible for building request
// payloads, choosing the order of the steps, and providing a domain-specific test API on top of
// the test context.
package framework
