// cliclient connects to a running zoomd as a viewer, saves the frames it
// receives as image files and optionally stops the zoom.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"time"
)

func main() {
	log.Printf("Starting CLI client...")
	if err := run(); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

func run() error {
	url := flag.String("url", "ws://localhost:8080/ws", "zoomd websocket endpoint")
	count := flag.Int("n", 1, "number of frames to save")
	out := flag.String("o", "mandel.png", "output file; with -n > 1 the frame sequence number is inserted before the extension")
	escape := flag.Bool("escape", false, "ask the server to stop the zoom after the last frame")
	timeout := flag.Duration("timeout", 30*time.Second, "give up after this long")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	c := client{url: *url, out: *out}
	return c.saveFrames(ctx, *count, *escape)
}
