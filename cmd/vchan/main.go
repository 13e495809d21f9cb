package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/vchan-go/vchan/cmd/vchan/cli"
	"github.com/vchan-go/vchan/config"
	"github.com/vchan-go/vchan/logging"
	"github.com/vchan-go/vchan/transport"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	root := &cli.Command{
		Usage: "vchan",
		Long:  `vchan is a utility for opening virtual channels over one connection`,
	}

	root.AddCommand(serveCmd)
	root.AddCommand(sendCmd)
	root.AddCommand(checkCmd)
	root.AddCommand(benchCmd)

	var err error
	cfg, err = config.Load("")
	fatal(err)
	logger, err = logging.Setup(cfg.Log)
	fatal(err)
	defer logger.Sync()
	transport.MaxFrameSize = cfg.MaxFrameSize

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.Execute(ctx, root, os.Args[1:]); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
