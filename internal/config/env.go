package config

import (
	"os"
	"strconv"
)

type envVar struct {
	name  string
	desc  string
	apply func(*Config, string)
}

var supportedEnvVars = []envVar{
	{
		// Only here for documentation purposes.  Does not override any values in the config as this environment variable
		// points to where the config should be loaded.  It is handled prior to loading the config.
		name:  "YOZORA_CONFIG_PATH",
		desc:  "Sets the path to the config file.  Default: OS-specific config directory",
		apply: func(c *Config, s string) {}, // Special case, no-op
	},
	{
		name:  "YOZORA_CONFIG_SERVER_URL",
		desc:  "Sets the base URL of the video archive server.  Default: None",
		apply: func(c *Config, s string) { c.Server.URL = s },
	},
	{
		name:  "YOZORA_CONFIG_SERVER_TOKEN",
		desc:  "Sets the archive API token.  Default: None",
		apply: func(c *Config, s string) { c.Server.Token = s },
	},
	{
		name:  "YOZORA_CONFIG_PLAYER_PATH",
		desc:  "Sets the path to the mpv binary.  Default: mpv",
		apply: func(c *Config, s string) { c.Player.Path = s },
	},
	{
		name:  "YOZORA_CONFIG_PLAYER_ARGS",
		desc:  "Sets additional mpv arguments.  Default: None",
		apply: func(c *Config, s string) { c.Player.Args = s },
	},
	{
		name: "YOZORA_CONFIG_PLAYER_DISABLE_PROGRESS_SYNC",
		desc: "Disables syncing watch progress back to the archive.  One of: true, false.  Default: false",
		apply: func(c *Config, s string) {
			if v, err := strconv.ParseBool(s); err == nil {
				c.Player.DisableProgressSync = v
			}
		},
	},
	{
		name:  "YOZORA_CONFIG_LOGGING_LEVEL",
		desc:  "Sets the logging level.  One of: debug, info, warn, error.  Default: info",
		apply: func(c *Config, s string) { c.Logging.Level = s },
	},
	{
		name:  "YOZORA_CONFIG_LOGGING_FILE_PATH",
		desc:  "Sets the logging file path.  Default: OS-specific",
		apply: func(c *Config, s string) { c.Logging.FilePath = s },
	},
}

func applyEnvVarOverrides(c *Config) {
	for _, envVar := range supportedEnvVars {
		if value := os.Getenv(envVar.name); value != "" {
			envVar.apply(c, value)
		}
	}
}
