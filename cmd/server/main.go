package main

import (
	"github.com/paperflow-ai/paperflow/internal/server"
	"github.com/paperflow-ai/paperflow/internal/util"
	"github.com/paperflow-ai/paperflow/pkg/logger"
	"github.com/paperflow-ai/paperflow/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
