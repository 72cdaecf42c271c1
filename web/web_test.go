package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"tagtone/broadcast"
	"tagtone/presence"
	"tagtone/store"
)

// fakeCore implements Core over an in-memory map.
type fakeCore struct {
	mappings map[string]store.Mapping
	scan     *presence.Scan
	avail    bool
}

func newFakeCore() *fakeCore {
	return &fakeCore{mappings: make(map[string]store.Mapping), avail: true}
}

func (f *fakeCore) ListMappings() ([]store.Mapping, error) {
	var out []store.Mapping
	for _, m := range f.mappings {
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeCore) GetMapping(tag string) (store.Mapping, error) {
	m, ok := f.mappings[tag]
	if !ok {
		return store.Mapping{}, store.ErrNotFound
	}
	return m, nil
}

func (f *fakeCore) PutMapping(tag, action, description string) error {
	f.mappings[tag] = store.Mapping{
		Tag:         tag,
		Action:      store.DecodeAction(action),
		Description: description,
	}
	return nil
}

func (f *fakeCore) DeleteMapping(tag string) (bool, error) {
	_, ok := f.mappings[tag]
	delete(f.mappings, tag)
	return ok, nil
}

func (f *fakeCore) LastScan() (presence.Scan, bool) {
	if f.scan == nil {
		return presence.Scan{}, false
	}
	return *f.scan, true
}

func (f *fakeCore) ReaderAvailable() bool { return f.avail }

func newTestServer(t *testing.T) (*httptest.Server, *fakeCore, *broadcast.Broker) {
	t.Helper()
	core := newFakeCore()
	broker := broadcast.New(16)
	srv := New(Config{}, core, broker)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, core, broker
}

func TestMappingCRUD(t *testing.T) {
	ts, _, _ := newTestServer(t)

	body := `{"tag":"123456789","action":"track:abc","description":"bedtime"}`
	resp, err := http.Post(ts.URL+"/api/mappings", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/api/mappings/123456789")
	if err != nil {
		t.Fatal(err)
	}
	var got store.Mapping
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got.Action.URI != "track:abc" || got.Description != "bedtime" {
		t.Fatalf("mapping = %+v", got)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/mappings/123456789", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/mappings/123456789")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete status = %d; want 404", resp.StatusCode)
	}
}

func TestPutMappingValidation(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/mappings", "application/json",
		bytes.NewBufferString(`{"tag":"1"}`)) // action missing
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400", resp.StatusCode)
	}
}

func TestStatus(t *testing.T) {
	ts, core, _ := newTestServer(t)
	core.scan = &presence.Scan{Tag: "42", At: time.Unix(1700000000, 0)}
	core.avail = false

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Reader   string `json:"reader"`
		LastScan struct {
			Tag string `json:"tag"`
		} `json:"last_scan"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if got.Reader != "unavailable" || got.LastScan.Tag != "42" {
		t.Fatalf("status = %+v", got)
	}
}

func TestWebsocketReceivesEvents(t *testing.T) {
	ts, _, broker := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()

	// Give the server a moment to register the subscription.
	deadline := time.Now().Add(time.Second)
	for broker.SubscriberCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	broker.Publish(broadcast.TagScanned("999", "", ""))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got broadcast.Event
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if got.Name != broadcast.EventTagScanned || got.Tag != "999" {
		t.Fatalf("event = %+v", got)
	}
}
