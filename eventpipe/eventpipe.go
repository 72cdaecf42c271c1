// Package eventpipe exposes a named pipe for injecting simulated tag
// events during development, so the full scan pipeline can be exercised
// without reader hardware attached.
package eventpipe

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// Handlers holds callbacks invoked for commands read from the pipe.
type Handlers struct {
	OnTag    func(tag string) // simulated tag scan
	OnRemove func()           // simulated tag removal
}

// Pipe listens for commands on a named pipe.
type Pipe struct {
	path     string
	handlers Handlers
	ctx      context.Context
	cancel   context.CancelFunc
}

// New creates a new Pipe. Returns nil if path is empty.
func New(path string, handlers Handlers) (*Pipe, error) {
	if path == "" {
		return nil, nil
	}

	// Remove existing pipe if it exists
	os.Remove(path)

	if err := syscall.Mkfifo(path, 0666); err != nil {
		return nil, fmt.Errorf("create named pipe %s: %w", path, err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pipe{
		path:     path,
		handlers: handlers,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start begins listening for commands on the pipe.
// This should be called as a goroutine.
func (p *Pipe) Start() {
	log.Printf("Event pipe listening on %s", p.path)

	for {
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		// Open blocks until a writer connects
		file, err := os.OpenFile(p.path, os.O_RDONLY, 0)
		if err != nil {
			if p.ctx.Err() != nil {
				return
			}
			log.Printf("Event pipe open error: %v", err)
			continue
		}

		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			select {
			case <-p.ctx.Done():
				file.Close()
				return
			default:
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			if err := p.dispatch(line); err != nil {
				log.Printf("Event pipe parse error: %v", err)
			}
		}

		file.Close()
		// Writer closed the pipe, loop back to wait for next writer
	}
}

// Close stops the listener and removes the pipe.
func (p *Pipe) Close() error {
	p.cancel()
	return os.Remove(p.path)
}

// dispatch parses a command line and invokes the matching handler.
// Command format:
//
//	tag <tagid>    - Simulated tag scan (decimal or hex ID)
//	rfid <tagid>   - Alias for tag
//	remove         - Simulated tag removal
func (p *Pipe) dispatch(line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return fmt.Errorf("empty command")
	}

	switch strings.ToLower(parts[0]) {
	case "tag", "rfid":
		if len(parts) < 2 {
			return fmt.Errorf("tag requires tag ID")
		}
		tag, err := normalizeTag(parts[1])
		if err != nil {
			return err
		}
		if p.handlers.OnTag != nil {
			p.handlers.OnTag(tag)
		}
		return nil

	case "remove":
		if p.handlers.OnRemove != nil {
			p.handlers.OnRemove()
		}
		return nil

	default:
		return fmt.Errorf("unknown command: %s", parts[0])
	}
}

// normalizeTag accepts decimal or hex tag IDs and returns the canonical
// decimal string form.
func normalizeTag(s string) (string, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		// Try hex
		id, err = strconv.ParseUint(s, 16, 64)
		if err != nil {
			return "", fmt.Errorf("invalid tag ID: %s", s)
		}
	}
	return strconv.FormatUint(id, 10), nil
}
