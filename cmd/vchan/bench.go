package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"time"

	"github.com/vchan-go/vchan/cmd/vchan/cli"
	"github.com/vchan-go/vchan/transport"
)

var benchCmd = &cli.Command{
	Usage: "bench [command|scheme://addr/channel]",
	Short: "channel round trip benchmark",
	Long: `Bench measures echo round trips against a host. With no argument it
runs "vchan serve stdio:///bench" as a subprocess; a URL benchmarks a
running "vchan serve"; anything else is run with sh -c and spoken to over
its stdio.`,
	Args: cli.MaxArgs(1),
	Run: func(ctx context.Context, args []string) {
		var arg string
		if len(args) > 0 {
			arg = args[0]
		}

		name := "bench"
		var d transport.Dialer
		if scheme, addr, ch, err := parseChannelURL(arg); err == nil && scheme != "stdio" {
			d, err = transport.Dial(scheme, addr)
			fatal(err)
			name = ch
		} else {
			var stop func()
			d, stop, err = dialSubprocess(arg, name)
			fatal(err)
			defer stop()
		}

		s, err := openSession(ctx, d, name)
		fatal(err)
		defer s.Close()

		kb := 1 << 10
		for _, size := range []int{kb, 64 * kb, kb * kb} {
			data := make([]byte, size)
			rand.Read(data)
			const rounds = 100
			start := time.Now()
			for i := 0; i < rounds; i++ {
				fatal(s.ch.Send(data))
				reply, err := s.receive(ctx)
				fatal(err)
				if !bytes.Equal(reply, data) {
					log.Fatal("echo does not match")
				}
			}
			diff := time.Since(start)
			total := float64(2 * rounds * size)
			fmt.Println("Size:", size/kb, "KB", "RTT:", diff/rounds, "Thru:", int(total/diff.Seconds()/float64(kb*kb)), "MB/s")
		}
	},
}
