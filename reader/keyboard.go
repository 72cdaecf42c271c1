package reader

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/kenshaw/evdev"
)

// Keyboard implements Transport for USB keyboard-wedge RFID readers
// that type the tag number followed by Enter. These readers have no
// reset line; Reset reopens the input device.
type Keyboard struct {
	device  *evdev.Evdev
	path    string
	timeout time.Duration
	tags    chan string
	cancel  context.CancelFunc
}

// NewKeyboard opens the evdev input device and starts collecting
// completed tag lines in the background.
func NewKeyboard(cfg Config) (*Keyboard, error) {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout == 0 {
		timeout = 250 * time.Millisecond
	}

	k := &Keyboard{
		path:    cfg.Device,
		timeout: timeout,
		tags:    make(chan string, 4),
	}
	if err := k.open(); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *Keyboard) open() error {
	dev, err := evdev.OpenFile(k.path)
	if err != nil {
		return fmt.Errorf("open evdev %s: %w", k.path, err)
	}
	log.Printf("Opened keyboard reader: %s", dev.Name())

	k.device = dev
	ctx, cancel := context.WithCancel(context.Background())
	k.cancel = cancel
	go k.collect(ctx, dev)
	return nil
}

// collect turns key events into completed tag strings. It exits when
// the device channel closes or the transport is reset/closed.
func (k *Keyboard) collect(ctx context.Context, dev *evdev.Evdev) {
	ch := dev.Poll(ctx)
	var strbuf string

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-ch:
			if event == nil {
				return
			}
			if _, ok := event.Type.(evdev.KeyType); !ok {
				continue
			}
			if event.Value != 1 {
				continue
			}
			if event.Type == evdev.KeyEnter {
				if strbuf == "" {
					continue
				}
				tag, err := normalizeWedge(strbuf)
				strbuf = ""
				if err != nil {
					log.Printf("Bad tag line: %v", err)
					continue
				}
				select {
				case k.tags <- tag:
				default:
					// Reader typed faster than the poll loop drains;
					// keep the newest read.
					<-k.tags
					k.tags <- tag
				}
				continue
			}
			s := evdev.KeyType(event.Code).String()
			if len(s) == 1 {
				strbuf += s
			}
		}
	}
}

// normalizeWedge parses a typed line as decimal, falling back to hex,
// and returns the canonical decimal form.
func normalizeWedge(s string) (string, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		n, err = strconv.ParseUint(s, 16, 64)
		if err != nil {
			return "", fmt.Errorf("unparseable tag %q", s)
		}
	}
	return strconv.FormatUint(n, 10), nil
}

// ReadTag waits up to the attempt deadline for a completed tag line.
func (k *Keyboard) ReadTag(ctx context.Context) (string, bool, error) {
	if k.device == nil {
		return "", false, fmt.Errorf("%w: device not open", ErrHardware)
	}

	t := time.NewTimer(k.timeout)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case tag := <-k.tags:
		return tag, true, nil
	case <-t.C:
		return "", false, nil
	}
}

// Reset reopens the input device.
func (k *Keyboard) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k.closeDevice()
	if err := k.open(); err != nil {
		return fmt.Errorf("%w: %v", ErrHardware, err)
	}
	return nil
}

// Close releases the input device.
func (k *Keyboard) Close() error {
	k.closeDevice()
	return nil
}

func (k *Keyboard) closeDevice() {
	if k.cancel != nil {
		k.cancel()
		k.cancel = nil
	}
	if k.device != nil {
		k.device.Close()
		k.device = nil
	}
}
