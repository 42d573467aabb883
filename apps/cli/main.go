package main

import (
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"os"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/session"
	"github.com/trezcool/masomo-portal/services/authapi"
	"github.com/trezcool/masomo-portal/services/credstore"
	logsvc "github.com/trezcool/masomo-portal/services/logger"
)

func main() {
	conf := core.NewConfig()

	var logOut io.Writer = ioutil.Discard
	if conf.Debug {
		logOut = os.Stderr
	}
	logger := logsvc.NewRollbarLogger(log.New(logOut, "CLI : ", log.LstdFlags|log.Lmicroseconds), conf)
	logger.Enable(!conf.Debug)

	store, err := credstore.NewFile(conf.Credentials.Path)
	if err != nil {
		log.Fatalf("setting up credential store: %v", err)
	}

	// start CLI
	cli := commandLine{
		mgr: session.NewManager(session.Deps{
			Store:  store,
			Auth:   authapi.NewClient(conf.API.BaseURL, &http.Client{Timeout: conf.API.Timeout}),
			Logger: logger,
		}),
		out: os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			log.Printf("error: %s\n", err)
		}
		os.Exit(1)
	}
}
