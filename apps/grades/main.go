package main

import (
	"log"
	"os"

	"github.com/trezcool/kitabu/core"
	logsvc "github.com/trezcool/kitabu/services/logger"
)

var logger core.Logger

func main() {
	defer os.Exit(0)

	std := log.New(os.Stderr, "GRADES : ", log.LstdFlags)
	if core.Conf.GetString("rollbarToken") != "" {
		logger = logsvc.NewRollbarLogger(std)
	} else {
		logger = logsvc.NewConsoleLogger(std)
	}

	cli := commandLine{logger: logger}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			std.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
