package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap/zapcore"

	"github.com/transportpce/servicehandler-tests/config"
	"github.com/transportpce/servicehandler-tests/framework"
	"github.com/transportpce/servicehandler-tests/servicetests"
)

func main() {
	var params commandParams
	if !params.Read(os.Args) {
		os.Exit(1)
	}

	cfg, err := config.Load(params.configPath)
	if err != nil {
		printFailure("Invalid configuration: %s", err)
		os.Exit(1)
	}
	params.ApplyTo(cfg)
	if err := cfg.Validate(); err != nil {
		printFailure("Invalid parameters: %s", err)
		os.Exit(1)
	}

	logger := framework.NewZapLogger(os.Stdout, cfg.Log.Level)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, cfg, params, logger)
	stop()
	if code != 0 {
		_ = logger.Sync()
		os.Exit(code)
	}
}

func run(ctx context.Context, cfg *config.Config, params commandParams, logger *framework.ZapLogger) int {
	harnessLogger := logger.Named("harness").AtLevel(zapcore.DebugLevel)

	opts := framework.HarnessOptions{
		Restconf:          cfg.RestconfConfig(),
		AttachPID:         cfg.Controller.AttachPID,
		ReadinessPath:     servicetests.ControllerConfigNodePath,
		NotificationsPort: cfg.NotificationsPort(),
	}
	if cfg.Controller.Start || cfg.Controller.AttachPID != 0 {
		copts := cfg.ControllerOptions()
		opts.Controller = &copts
	}

	harness, err := framework.NewTestHarness(ctx, opts, harnessLogger, os.Stdout)
	if err != nil {
		printFailure("Controller error: %s", err)
		return 1
	}
	defer func() {
		// The run context may already be cancelled; the controller still has to be stopped.
		if err := harness.Close(context.Background()); err != nil {
			logger.AtLevel(zapcore.ErrorLevel).Printf("Could not stop controller: %s", err)
		}
	}()

	fmt.Println()
	params.filters.Describe(os.Stdout)

	fmt.Println("Running test suite")

	testLogger := &ConsoleTestLogger{
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}

	results := servicetests.RunTestSuite(ctx, harness, params.filters.AsFilter, testLogger, servicetests.SuiteOptions{
		TopologyFile: cfg.Suite.TopologyFile,
		SettleScale:  cfg.Suite.SettleScale,
	})

	fmt.Println()
	framework.PrintResults(results)
	code, reason := exitCode(results, ctx.Err() != nil)
	if reason != "" {
		printFailure("%s", reason)
	}
	return code
}

// exitCode is 1 if the run was interrupted, if any test failed, or if the filters selected no
// tests at all.
func exitCode(results framework.Results, interrupted bool) (int, string) {
	switch {
	case interrupted:
		return 1, "Test run interrupted"
	case !results.OK():
		return 1, ""
	case len(results.Tests) == 0:
		return 1, "No tests matched the -run/-skip parameters"
	}
	return 0, ""
}
