// Package config loads the harness configuration.
//
// Configuration loading priority (highest to lowest):
// 1. Command line arguments (applied by the caller after Load)
// 2. Environment variables, prefixed with SHTEST_ (for instance SHTEST_RESTCONF_BASE_URL)
// 3. Configuration file
// 4. Default values
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/transportpce/servicehandler-tests/controller"
	"github.com/transportpce/servicehandler-tests/restconf"
	"github.com/transportpce/servicehandler-tests/servicetests"
)

const (
	EnvPrefix     = "SHTEST"
	ConfigPathEnv = EnvPrefix + "_CONFIG"

	DefaultTopologyFile      = servicetests.DefaultTopologyFile
	DefaultNotificationsPort = 8585
	DefaultLogLevel          = "info"
	DefaultSettleScale       = servicetests.DefaultSettleScale
)

type Config struct {
	Restconf      RestconfConfig      `mapstructure:"restconf"`
	Controller    ControllerConfig    `mapstructure:"controller"`
	Suite         SuiteConfig         `mapstructure:"suite"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Log           LogConfig           `mapstructure:"log"`
}

type RestconfConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type ControllerConfig struct {
	// Start is false when the controller is managed outside the harness.
	Start            bool          `mapstructure:"start"`
	Executable       string        `mapstructure:"executable"`
	Args             []string      `mapstructure:"args"`
	WorkDir          string        `mapstructure:"workdir"`
	LogFile          string        `mapstructure:"log_file"`
	StartupDelay     time.Duration `mapstructure:"startup_delay"`
	Readiness        string        `mapstructure:"readiness"`
	ReadinessTimeout time.Duration `mapstructure:"readiness_timeout"`
	StopTimeout      time.Duration `mapstructure:"stop_timeout"`
	// AttachPID, when set, supervises an already running controller instead of starting one.
	AttachPID int  `mapstructure:"attach_pid"`
	StopAtEnd bool `mapstructure:"stop_at_end"`
}

type SuiteConfig struct {
	TopologyFile string `mapstructure:"topology_file"`
	// SettleScale multiplies the pauses between steps; 0 disables them.
	SettleScale float64 `mapstructure:"settle_scale"`
}

type NotificationsConfig struct {
	// Port of the notification sink; a negative value disables it.
	Port int `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads the configuration. An empty path falls back to $SHTEST_CONFIG; if neither is set,
// only defaults and environment variables are used. A path that is given but missing is an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath == "" {
		configPath = os.Getenv(ConfigPathEnv)
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || os.IsNotExist(err) {
				return nil, fmt.Errorf("config file %s not found", configPath)
			}
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("restconf.base_url", restconf.DefaultBaseURL)
	v.SetDefault("restconf.username", restconf.DefaultUsername)
	v.SetDefault("restconf.password", restconf.DefaultPassword)
	v.SetDefault("restconf.timeout", restconf.DefaultTimeout)

	v.SetDefault("controller.start", true)
	v.SetDefault("controller.executable", controller.DefaultExecutable)
	v.SetDefault("controller.args", []string{controller.DefaultLauncher})
	v.SetDefault("controller.workdir", "")
	v.SetDefault("controller.log_file", controller.DefaultLogFile)
	v.SetDefault("controller.startup_delay", controller.DefaultStartupDelay)
	v.SetDefault("controller.readiness", string(controller.ReadinessSleep))
	v.SetDefault("controller.readiness_timeout", controller.DefaultReadinessTimeout)
	v.SetDefault("controller.stop_timeout", controller.DefaultStopTimeout)
	v.SetDefault("controller.attach_pid", 0)
	v.SetDefault("controller.stop_at_end", false)

	v.SetDefault("suite.topology_file", DefaultTopologyFile)
	v.SetDefault("suite.settle_scale", DefaultSettleScale)

	v.SetDefault("notifications.port", DefaultNotificationsPort)

	v.SetDefault("log.level", DefaultLogLevel)
}

// Validate checks values that would otherwise only fail halfway through a run.
func (c *Config) Validate() error {
	if c.Restconf.BaseURL == "" {
		return errors.New("restconf.base_url must not be empty")
	}
	switch controller.ReadinessMode(c.Controller.Readiness) {
	case controller.ReadinessSleep, controller.ReadinessPoll:
	default:
		return fmt.Errorf("controller.readiness must be %q or %q, not %q",
			controller.ReadinessSleep, controller.ReadinessPoll, c.Controller.Readiness)
	}
	if c.Controller.StartupDelay < 0 {
		return errors.New("controller.startup_delay must not be negative")
	}
	if c.Suite.SettleScale < 0 {
		return errors.New("suite.settle_scale must not be negative")
	}
	if c.Controller.Start && c.Controller.AttachPID == 0 && c.Controller.Executable == "" {
		return errors.New("controller.executable must be set when the harness starts the controller")
	}
	return nil
}

// NotificationsPort returns the sink port, or an undefined value if the sink is disabled.
func (c *Config) NotificationsPort() ldvalue.OptionalInt {
	if c.Notifications.Port < 0 {
		return ldvalue.OptionalInt{}
	}
	return ldvalue.NewOptionalInt(c.Notifications.Port)
}

// ControllerOptions converts the controller section into supervisor options. The readiness
// probe is left for the caller to supply.
func (c *Config) ControllerOptions() controller.Options {
	cc := c.Controller
	return controller.Options{
		Executable:       cc.Executable,
		Args:             cc.Args,
		Dir:              cc.WorkDir,
		LogFile:          cc.LogFile,
		StartupDelay:     cc.StartupDelay,
		Readiness:        controller.ReadinessMode(cc.Readiness),
		ReadinessTimeout: cc.ReadinessTimeout,
		StopTimeout:      cc.StopTimeout,
		StopAttached:     cc.StopAtEnd,
	}
}

func (c *Config) RestconfConfig() restconf.Config {
	return restconf.Config{
		BaseURL:  c.Restconf.BaseURL,
		Username: c.Restconf.Username,
		Password: c.Restconf.Password,
		Timeout:  c.Restconf.Timeout,
	}
}
