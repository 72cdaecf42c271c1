package store

import (
	"errors"
	"reflect"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDecodeAction(t *testing.T) {
	tests := []struct {
		raw  string
		want Action
	}{
		{"TOGGLE_PLAY", Action{Kind: ActionToggle}},
		{"STOP", Action{Kind: ActionStop}},
		{"spotify:track:abc", Action{Kind: ActionPlay, URI: "spotify:track:abc"}},
		{"file:///music/a.mp3", Action{Kind: ActionPlay, URI: "file:///music/a.mp3"}},
		{"stop", Action{Kind: ActionPlay, URI: "stop"}}, // control strings are case-sensitive
	}
	for _, tt := range tests {
		if got := DecodeAction(tt.raw); got != tt.want {
			t.Errorf("DecodeAction(%q) = %+v; want %+v", tt.raw, got, tt.want)
		}
		if got := tt.want.Encode(); got != tt.raw {
			t.Errorf("Encode(%+v) = %q; want %q", tt.want, got, tt.raw)
		}
	}
}

func TestPutGetDelete(t *testing.T) {
	s := openTestStore(t)

	m := Mapping{
		Tag:         "123456789",
		Action:      Action{Kind: ActionPlay, URI: "track:abc"},
		Description: "bedtime album",
	}
	if err := s.Put(m); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.Get("123456789")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reflect.DeepEqual(got, m) {
		t.Fatalf("get = %+v; want %+v", got, m)
	}

	ok, err := s.Delete("123456789")
	if err != nil || !ok {
		t.Fatalf("delete = %v, %v; want true, nil", ok, err)
	}
	if _, err := s.Get("123456789"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete = %v; want ErrNotFound", err)
	}

	ok, err = s.Delete("123456789")
	if err != nil || ok {
		t.Fatalf("second delete = %v, %v; want false, nil", ok, err)
	}
}

func TestPutOverwrites(t *testing.T) {
	s := openTestStore(t)

	if err := s.Put(Mapping{Tag: "1", Action: DecodeAction("old:uri")}); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(Mapping{Tag: "1", Action: DecodeAction("STOP")}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get("1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Action.Kind != ActionStop {
		t.Fatalf("action = %+v; want stop", got.Action)
	}
}

func TestListOrderedByTag(t *testing.T) {
	s := openTestStore(t)

	for _, tag := range []string{"300", "100", "200"} {
		if err := s.Put(Mapping{Tag: tag, Action: DecodeAction("uri:" + tag)}); err != nil {
			t.Fatal(err)
		}
	}

	ms, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	var tags []string
	for _, m := range ms {
		tags = append(tags, m.Tag)
	}
	want := []string{"100", "200", "300"}
	if !reflect.DeepEqual(tags, want) {
		t.Fatalf("list order = %v; want %v", tags, want)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	src := openTestStore(t)
	dst := openTestStore(t)

	seed := []Mapping{
		{Tag: "1", Action: DecodeAction("track:a"), Description: "one"},
		{Tag: "2", Action: DecodeAction("TOGGLE_PLAY")},
		{Tag: "3", Action: DecodeAction("STOP"), Description: "halt"},
	}
	for _, m := range seed {
		if err := src.Put(m); err != nil {
			t.Fatal(err)
		}
	}

	exported, err := src.Export()
	if err != nil {
		t.Fatal(err)
	}
	if err := dst.Import(exported); err != nil {
		t.Fatal(err)
	}

	got, err := dst.List()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, exported) {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, exported)
	}
}

func TestChangeNotifications(t *testing.T) {
	s := openTestStore(t)

	changes := 0
	s.OnChange(func() { changes++ })

	if err := s.Put(Mapping{Tag: "1", Action: DecodeAction("uri:x")}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Delete("1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Delete("1"); err != nil { // absent: no notification
		t.Fatal(err)
	}

	if changes != 2 {
		t.Fatalf("change notifications = %d; want 2", changes)
	}
}

func TestCount(t *testing.T) {
	s := openTestStore(t)
	for _, tag := range []string{"a", "b", "c"} {
		if err := s.Put(Mapping{Tag: tag, Action: DecodeAction("uri:" + tag)}); err != nil {
			t.Fatal(err)
		}
	}
	n, err := s.Count()
	if err != nil || n != 3 {
		t.Fatalf("count = %d, %v; want 3, nil", n, err)
	}
}
