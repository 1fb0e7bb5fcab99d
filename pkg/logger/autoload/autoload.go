// Package autoload initializes the global logger from the LOG_* environment
// variables as a side effect of being imported.
package autoload

import (
	configx "github.com/policynav/policy-navigator/pkg/config"
	logx "github.com/policynav/policy-navigator/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
