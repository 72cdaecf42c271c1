package main

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"
)

// onMQTTConnect subscribes to the control topics for this node.
func (app *App) onMQTTConnect() {
	for _, cmd := range []string{"play", "stop", "toggle"} {
		topic := fmt.Sprintf("tagtone/control/node/%s/%s", app.cfg.ClientID, cmd)
		if err := app.mqtt.Subscribe(topic); err != nil {
			log.Printf("Subscribe error: %v", err)
		}
	}
}

func (app *App) onMQTTDisconnect() {
	// Reader and playback keep running; the status plane is best effort.
}

func (app *App) onMQTTMessage(topic string, payload []byte) {
	prefix := fmt.Sprintf("tagtone/control/node/%s/", app.cfg.ClientID)
	if !strings.HasPrefix(topic, prefix) {
		return
	}

	var err error
	switch strings.TrimPrefix(topic, prefix) {
	case "play":
		uri := strings.TrimSpace(string(payload))
		if uri == "" {
			log.Println("Remote play command without URI")
			return
		}
		err = app.player.Play(uri)
	case "stop":
		err = app.player.Stop()
	case "toggle":
		err = app.player.TogglePlayPause()
	default:
		return
	}
	if err != nil {
		log.Printf("Remote command %s: %v", topic, err)
	}
}

// eventMirror republishes broadcast events onto the MQTT status plane,
// one topic per event name.
func (app *App) eventMirror() {
	sub := app.broker.Subscribe()
	defer app.broker.Unsubscribe(sub)

	for {
		select {
		case <-app.ctx.Done():
			return
		case evt, ok := <-sub.Events():
			if !ok {
				return
			}
			payload, err := json.Marshal(evt)
			if err != nil {
				log.Printf("Encode event: %v", err)
				continue
			}
			topic := fmt.Sprintf("tagtone/status/node/%s/%s", app.cfg.ClientID, evt.Name)
			app.mqtt.Publish(topic, string(payload))
		}
	}
}

func (app *App) pingSender() {
	ticker := time.NewTicker(120 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-app.ctx.Done():
			return
		case <-ticker.C:
			topic := fmt.Sprintf("tagtone/status/node/%s/ping", app.cfg.ClientID)
			app.mqtt.Publish(topic, `{"status":"ok"}`)
		}
	}
}
