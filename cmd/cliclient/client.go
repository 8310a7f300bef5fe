package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/coder/websocket"

	"github.com/marben/mandel_zoom/display"
)

// maxFrameMessage bounds a single frame message: 4 bytes per pixel of an 8K frame plus framing.
const maxFrameMessage = 4*7680*4320 + 1024

type client struct {
	url string
	out string
}

// saveFrames receives count frames and writes each of them to disk.
func (c client) saveFrames(ctx context.Context, count int, escape bool) error {
	// Step 1: Connect to the zoom server
	log.Printf("Connecting to %s...", c.url)
	conn, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxFrameMessage)

	// Step 2: Receive and save frames; text messages do not count
	for saved := 0; saved < count; {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}
		if typ != websocket.MessageBinary {
			continue
		}

		f, err := display.DecodeFrame(data)
		if err != nil {
			return err
		}

		name := c.filename(f.Seq, count > 1)
		if err := save(name, f); err != nil {
			return err
		}
		saved++
		log.Printf("Frame %d (%dx%d) saved to %q [%d/%d]", f.Seq, f.Width, f.Height, name, saved, count)
	}

	// Step 3: Optionally stop the zoom, then say goodbye
	if escape {
		log.Printf("Asking server to stop the zoom...")
		if err := conn.Write(ctx, websocket.MessageText, []byte(display.EscapeMessage)); err != nil {
			return fmt.Errorf("send escape: %w", err)
		}
	}
	return conn.Close(websocket.StatusNormalClosure, "")
}

func (c client) filename(seq uint64, numbered bool) string {
	if !numbered {
		return c.out
	}
	ext := filepath.Ext(c.out)
	return fmt.Sprintf("%s-%06d%s", strings.TrimSuffix(c.out, ext), seq, ext)
}

func save(name string, f display.WireFrame) error {
	format := strings.TrimPrefix(filepath.Ext(name), ".")
	if format == "" {
		format = "png"
	}

	file, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := display.Encode(file, display.ToImage(f.Pixels, f.Width, f.Height), format); err != nil {
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return file.Close()
}
