package common

import (
	"github.com/terrainkit/terrainkit/pkg/configs"
)

type CommonFlags struct {
	Config   string `flag:"config" metavar:"PATH" help:"path to terrainkit.yaml. By default, it is looked up from the working directory toward the filesystem root."`
	LogLevel string `flag:"loglevel" metavar:"debug|info|warn|error|off" help:"log level of the tile server"`
}

func DefaultCommonFlags() CommonFlags {
	return CommonFlags{LogLevel: "warn"}
}

// LoadConfig reads configuration file specified by --config.
//
// When --config is not given, configs.FileName is looked up from directory `from` upward.
func (cf CommonFlags) LoadConfig(from string) (configs.Config, error) {
	if cf.Config != "" {
		return configs.Load(cf.Config)
	}
	return configs.Find(from)
}
