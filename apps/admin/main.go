package main

import (
	"fmt"
	"log"
	"os"

	"github.com/trezcool/sanggar/apps/api/di"
	"github.com/trezcool/sanggar/core"
	"github.com/trezcool/sanggar/core/document"
	"github.com/trezcool/sanggar/storage/uploads"
)

func main() {
	var code int
	c := di.New(core.NewConfig, di.NewLogger("ADMIN"))

	errAndDie(c.Invoke(func(
		logger core.Logger,
		svc document.ServiceInterface,
		store *uploads.Store,
	) {
		cli := commandLine{
			svc:    svc,
			store:  store,
			logger: logger,
			out:    os.Stdout,
			outFd:  int(os.Stdout.Fd()),
		}
		if err := cli.run(os.Args); err != nil {
			if err != errHelp {
				logger.Error(fmt.Sprintf("error: %s", err), err)
			}
			code = 1
		}
	}))

	os.Exit(code)
}

func errAndDie(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
