package reader

import "testing"

func validFrame() []byte {
	// tag bytes 0x0001E240 = 123456
	buff := []byte{0x02, 0x09, 0x00, 0x00, 0x01, 0xE2, 0x40, 0x00, 0x03}
	xor := buff[1]
	for _, b := range buff[2:7] {
		xor ^= b
	}
	buff[7] = xor
	return buff
}

func TestParseFrame(t *testing.T) {
	good := validFrame()

	badPreamble := validFrame()
	badPreamble[0] = 0x04

	badTerminator := validFrame()
	badTerminator[8] = 0x00

	badChecksum := validFrame()
	badChecksum[7] ^= 0xFF

	tests := []struct {
		name    string
		frame   []byte
		wantTag string
		wantOK  bool
	}{
		{"valid", good, "123456", true},
		{"bad preamble", badPreamble, "", false},
		{"bad terminator", badTerminator, "", false},
		{"bad checksum", badChecksum, "", false},
		{"short", good[:5], "", false},
		{"empty", nil, "", false},
	}

	for _, tt := range tests {
		tag, ok := parseFrame(tt.frame)
		if ok != tt.wantOK || tag != tt.wantTag {
			t.Errorf("%s: parseFrame = (%q, %v); want (%q, %v)",
				tt.name, tag, ok, tt.wantTag, tt.wantOK)
		}
	}
}

func TestNormalizeWedge(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"123456789", "123456789", false},
		{" 123456789 ", "123456789", false},
		{"75BCD15", "123456789", false}, // hex fallback
		{"xyz", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := normalizeWedge(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("normalizeWedge(%q) error = %v; wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("normalizeWedge(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
