package reader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/tarm/serial"
	"github.com/warthog618/go-gpiocdev"
)

const resetPulse = 100 * time.Millisecond

// Serial implements Transport for serial RFID readers.
// Frame protocol: [0x02][0x09][data...][checksum][0x03]
type Serial struct {
	port     *serial.Port
	scfg     *serial.Config
	resetLn  *gpiocdev.Line
	device   string
}

// NewSerial opens a serial reader. When cfg.ResetChip is set, the reset
// line is requested as an output and driven high so the device is awake.
func NewSerial(cfg Config) (*Serial, error) {
	baud := cfg.Baud
	if baud == 0 {
		baud = 115200
	}
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout == 0 {
		timeout = 250 * time.Millisecond
	}

	scfg := &serial.Config{
		Name:        cfg.Device,
		Baud:        baud,
		ReadTimeout: timeout,
	}

	s := &Serial{scfg: scfg, device: cfg.Device}

	if cfg.ResetChip != "" {
		ln, err := gpiocdev.RequestLine(cfg.ResetChip, cfg.ResetPin,
			gpiocdev.AsOutput(1))
		if err != nil {
			return nil, fmt.Errorf("request reset line %s:%d: %w",
				cfg.ResetChip, cfg.ResetPin, err)
		}
		s.resetLn = ln
	}

	port, err := serial.OpenPort(scfg)
	if err != nil {
		if s.resetLn != nil {
			s.resetLn.Close()
		}
		return nil, fmt.Errorf("open serial %s: %w", cfg.Device, err)
	}
	s.port = port
	s.port.Flush()

	return s, nil
}

// ReadTag performs a single framed read. A timeout with no bytes means
// no tag is in range; anything else the port reports is a hardware fault.
func (s *Serial) ReadTag(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if s.port == nil {
		return "", false, fmt.Errorf("%w: port not open", ErrHardware)
	}

	buff := make([]byte, 9)
	n, err := s.port.Read(buff)
	if err == io.EOF || (err == nil && n == 0) {
		return "", false, nil // timeout, nothing in range
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: read %s: %v", ErrHardware, s.device, err)
	}

	tag, ok := parseFrame(buff[:n])
	if !ok {
		// Partial or corrupt frame. Drop whatever is buffered so the
		// next attempt starts on a frame boundary.
		s.port.Flush()
		return "", false, nil
	}
	return tag, true, nil
}

// parseFrame validates one 9-byte reader frame and extracts the tag
// number as a decimal string.
func parseFrame(buff []byte) (string, bool) {
	if len(buff) != 9 {
		return "", false
	}
	if !bytes.Equal(buff[0:2], []byte{0x02, 0x09}) {
		return "", false
	}
	if buff[8] != 0x03 {
		return "", false
	}

	data := buff[1:7]
	xor := data[0]
	for i := 1; i < len(data); i++ {
		xor ^= data[i]
	}
	if xor != buff[7] {
		return "", false
	}

	tagno := (uint64(data[2]) << 24) | (uint64(data[3]) << 16) |
		(uint64(data[4]) << 8) | uint64(data[5])
	return strconv.FormatUint(tagno, 10), true
}

// Reset pulses the physical reset line low and reopens the port.
func (s *Serial) Reset(ctx context.Context) error {
	if s.resetLn != nil {
		if err := s.resetLn.SetValue(0); err != nil {
			return fmt.Errorf("%w: drive reset low: %v", ErrHardware, err)
		}
		if err := sleepCtx(ctx, resetPulse); err != nil {
			return err
		}
		if err := s.resetLn.SetValue(1); err != nil {
			return fmt.Errorf("%w: drive reset high: %v", ErrHardware, err)
		}
		if err := sleepCtx(ctx, resetPulse); err != nil {
			return err
		}
	}

	if s.port != nil {
		s.port.Close()
		s.port = nil
	}
	port, err := serial.OpenPort(s.scfg)
	if err != nil {
		return fmt.Errorf("%w: reopen %s: %v", ErrHardware, s.device, err)
	}
	s.port = port
	s.port.Flush()
	return nil
}

// Close releases the port and the reset line.
func (s *Serial) Close() error {
	var first error
	if s.port != nil {
		first = s.port.Close()
		s.port = nil
	}
	if s.resetLn != nil {
		if err := s.resetLn.Close(); err != nil && first == nil {
			first = err
		}
		s.resetLn = nil
	}
	return first
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
