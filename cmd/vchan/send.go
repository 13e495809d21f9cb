package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/progrium/clon-go"

	"github.com/vchan-go/vchan/cmd/vchan/cli"
	"github.com/vchan-go/vchan/codec"
	"github.com/vchan-go/vchan/transport"
)

var sendCmd = &cli.Command{
	Usage: "send <scheme://addr/channel> [args...]",
	Short: "send a value on a channel and print the reply",
	Long: `Send opens the named channel, sends the value built from the CLON
arguments encoded with the configured codec, and prints the first reply as
JSON.`,
	Args: cli.MinArgs(1),
	Run: func(ctx context.Context, args []string) {
		scheme, addr, name, err := parseChannelURL(args[0])
		fatal(err)
		c, err := codec.ByName(cfg.Codec)
		fatal(err)

		var sargs any
		if len(args) > 1 {
			sargs, err = clon.Parse(args[1:])
			fatal(err)
		}
		payload, err := codec.Marshal(c, sargs)
		fatal(err)

		d, err := transport.Dial(scheme, addr)
		fatal(err)
		s, err := openSession(ctx, d, name)
		fatal(err)
		defer s.Close()

		fatal(s.ch.Send(payload))
		reply, err := s.receive(ctx)
		fatal(err)

		var ret any
		fatal(codec.Unmarshal(c, reply, &ret))
		b, err := json.MarshalIndent(ret, "", "  ")
		fatal(err)
		fmt.Println(string(b))
	},
}
