package main

import (
	"log"
	"os"

	"github.com/trezcool/pathwise/client"
	"github.com/trezcool/pathwise/core"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stderr, "LEARNER : ", log.LstdFlags)
	conf := core.NewConfig()

	store := client.NewFileTokenStore(conf.Client.TokenFile)
	cli := commandLine{
		store:    store,
		client:   client.New(conf.Client.GatewayURL, store, conf.Backend.Timeout),
		interval: conf.Client.UnreadInterval,
		out:      os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
