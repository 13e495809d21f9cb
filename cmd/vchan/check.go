package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/vchan-go/vchan/cmd/vchan/cli"
)

var checkCmd = &cli.Command{
	Usage: "check [command]",
	Short: "check an echo host over stdio",
	Long: `Check runs command with sh -c, or "vchan serve stdio:///check" when
omitted, and verifies handshake, echo, ordering and reopening of the
"check" channel over the process stdio.`,
	Args: cli.MaxArgs(1),
	Run: func(ctx context.Context, args []string) {
		var command string
		if len(args) > 0 {
			command = args[0]
		}
		d, stop, err := dialSubprocess(command, "check")
		fatal(err)
		defer stop()

		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		s, err := openSession(ctx, d, "check")
		fatal(err)
		defer s.Close()
		fmt.Println("* Handshake OK")

		data := make([]byte, 1024)
		rand.Read(data)
		fatal(s.ch.Send(data))
		reply, err := s.receive(ctx)
		fatal(err)
		if !bytes.Equal(reply, data) {
			log.Fatal("echo does not match")
		}
		fmt.Println("* Echo OK")

		for i := 0; i < 100; i++ {
			fatal(s.ch.Send([]byte(strconv.Itoa(i))))
		}
		for i := 0; i < 100; i++ {
			reply, err := s.receive(ctx)
			fatal(err)
			if string(reply) != strconv.Itoa(i) {
				log.Fatalf("out of order: got %s, want %d", reply, i)
			}
		}
		fmt.Println("* Ordering OK")

		// closing is terminal, so reopen on a fresh channel value
		fatal(s.ch.Close())
		fatal(s.attach(ctx, "check"))
		fatal(s.ch.Send([]byte("again")))
		reply, err = s.receive(ctx)
		fatal(err)
		if string(reply) != "again" {
			log.Fatal("echo after reopen does not match")
		}
		fmt.Println("* Reopen OK")
	},
}
