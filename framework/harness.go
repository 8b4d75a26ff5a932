package framework

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/transportpce/servicehandler-tests/controller"
	"github.com/transportpce/servicehandler-tests/restconf"
)

// HarnessOptions describes the controller under test and how to reach it.
type HarnessOptions struct {
	Restconf restconf.Config

	// Controller, if non-nil, makes the harness start the controller process. AttachPID takes
	// precedence: the harness then supervises that process instead of starting one. With neither,
	// the controller is assumed to be running already and is left alone.
	Controller *controller.Options
	AttachPID  int

	// ReadinessPath is probed when the controller uses poll readiness.
	ReadinessPath string

	// NotificationsPort is where the notification sink listens; undefined disables the sink.
	NotificationsPort ldvalue.OptionalInt
}

// TestHarness owns everything outside the test logic itself: the controller process, the
// RESTCONF client and the notification sink.
type TestHarness struct {
	restconf      *restconf.Client
	controller    *controller.Controller
	notifications *NotificationSink
	logger        Logger
}

// NewTestHarness brings up the environment: it starts the notification sink, then starts or
// attaches to the controller and waits until it is ready. On failure, anything already started
// is torn down again.
func NewTestHarness(
	ctx context.Context,
	opts HarnessOptions,
	debugLogger Logger,
	startupOutput io.Writer,
) (*TestHarness, error) {
	if debugLogger == nil {
		debugLogger = NullLogger()
	}
	if startupOutput == nil {
		startupOutput = io.Discard
	}

	h := &TestHarness{
		restconf: restconf.NewClient(opts.Restconf, debugLogger),
		logger:   debugLogger,
	}

	success := false
	defer func() {
		if !success {
			_ = h.Close(context.Background())
		}
	}()

	if opts.NotificationsPort.IsDefined() {
		sink, err := StartNotificationSink(opts.NotificationsPort.IntValue(), debugLogger)
		if err != nil {
			return nil, err
		}
		h.notifications = sink
		fmt.Fprintf(startupOutput, "Listening for controller notifications at %s\n", sink.URL())
	}

	switch {
	case opts.AttachPID != 0:
		var copts controller.Options
		if opts.Controller != nil {
			copts = *opts.Controller
		}
		copts.StartupDelay = 0
		h.controller = controller.New(copts, debugLogger)
		if err := h.controller.Attach(ctx, opts.AttachPID); err != nil {
			return nil, err
		}
		fmt.Fprintf(startupOutput, "Using running controller with PID %d\n", opts.AttachPID)
	case opts.Controller != nil:
		copts := *opts.Controller
		if copts.ReadinessProbe == nil && opts.ReadinessPath != "" {
			copts.ReadinessProbe = h.probe(opts.ReadinessPath)
		}
		h.controller = controller.New(copts, debugLogger)
		fmt.Fprintf(startupOutput, "Starting controller: %s\n", h.controller.CommandLine())
		if err := h.controller.Start(ctx); err != nil {
			return nil, err
		}
		fmt.Fprintf(startupOutput, "Waiting for controller (PID %d) to initialize\n", h.controller.PID())
		if err := h.controller.AwaitReady(ctx); err != nil {
			return nil, err
		}
	default:
		fmt.Fprintf(startupOutput, "Using controller at %s (not managed by the harness)\n", h.restconf.BaseURL())
	}

	success = true
	return h, nil
}

// probe treats any response below 500 as ready: even a 404 shows RESTCONF is being served.
func (h *TestHarness) probe(path string) func(context.Context) error {
	return func(ctx context.Context) error {
		resp, err := h.restconf.Get(ctx, path)
		if err != nil {
			return err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("RESTCONF returned HTTP %d", resp.StatusCode)
		}
		return nil
	}
}

// Restconf returns a RESTCONF client that logs to the given logger.
func (h *TestHarness) Restconf(logger Logger) *restconf.Client {
	return h.restconf.WithLogger(logger)
}

// Notifications returns the notification sink, or nil if it is disabled.
func (h *TestHarness) Notifications() *NotificationSink {
	return h.notifications
}

// NotificationURL is the URL to put in request headers, or "" to use the payload default.
func (h *TestHarness) NotificationURL() string {
	if h.notifications == nil {
		return ""
	}
	return h.notifications.URL()
}

// ControllerExited is closed if a controller started by the harness exits. It is nil otherwise.
func (h *TestHarness) ControllerExited() <-chan struct{} {
	if h.controller == nil {
		return nil
	}
	return h.controller.Exited()
}

// Close stops the controller, if the harness manages it, and the notification sink.
func (h *TestHarness) Close(ctx context.Context) error {
	var err error
	if h.controller != nil {
		if err = h.controller.Stop(ctx); errors.Is(err, controller.ErrNotStarted) {
			err = nil
		}
	}
	if h.notifications != nil {
		h.notifications.Close()
	}
	return err
}
