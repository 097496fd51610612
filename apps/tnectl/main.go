package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/tneregistro/portal/core"
	"github.com/tneregistro/portal/services/tneapi"
	filesession "github.com/tneregistro/portal/storage/session/file"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stderr, "TNECTL : ", 0)

	conf := core.NewConfig()
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		backend:    tneapi.NewClient(conf, nil),
		sessions:   filesession.NewStore(conf.CLISessionFile),
		validate:   validate,
		translator: translator,
		out:        os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("error: %s\n", err)
		}
		os.Exit(1)
	}
}
