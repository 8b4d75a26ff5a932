package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/transportpce/servicehandler-tests/config"
	"github.com/transportpce/servicehandler-tests/framework"
)

type commandParams struct {
	configPath       string
	restconfURL      string
	filters          framework.RegexFilters
	noStart          bool
	stopServiceAtEnd bool
	settleScale      float64
	debug            bool
	debugAll         bool

	// set holds the names of the flags given on the command line; only those override the
	// configuration.
	set map[string]bool
}

func (c *commandParams) Read(args []string) bool {
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.StringVar(&c.configPath, "config", "", "configuration file (default $"+config.ConfigPathEnv+")")
	fs.StringVar(&c.restconfURL, "url", "", "RESTCONF base URL of the controller")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) matched against step IDs, to select steps to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) matched against step IDs, to select steps not to run")
	fs.BoolVar(&c.noStart, "no-start", false, "do not start the controller; test one that is already running")
	fs.BoolVar(&c.stopServiceAtEnd, "stop-service-at-end", false, "stop an attached controller after the test run")
	fs.Float64Var(&c.settleScale, "settle-scale", config.DefaultSettleScale, "multiplier for the pauses between steps (0 disables them)")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")

	if err := fs.Parse(args[1:]); err != nil {
		return false // the flag set has already printed the error and usage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected arguments: %v\n", fs.Args())
		fs.Usage()
		return false
	}
	if c.settleScale < 0 {
		fmt.Fprintln(os.Stderr, "-settle-scale must not be negative")
		return false
	}
	c.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { c.set[f.Name] = true })
	return true
}

// ApplyTo overrides configuration values with the flags that were given.
func (c *commandParams) ApplyTo(cfg *config.Config) {
	if c.set["url"] {
		cfg.Restconf.BaseURL = c.restconfURL
	}
	if c.set["no-start"] {
		cfg.Controller.Start = !c.noStart
	}
	if c.set["stop-service-at-end"] {
		cfg.Controller.StopAtEnd = c.stopServiceAtEnd
	}
	if c.set["settle-scale"] {
		cfg.Suite.SettleScale = c.settleScale
	}
	if c.debugAll {
		cfg.Log.Level = "debug"
	}
}
