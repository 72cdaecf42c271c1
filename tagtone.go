package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v2"

	"tagtone/broadcast"
	"tagtone/dispatch"
	"tagtone/eventpipe"
	"tagtone/indicator"
	"tagtone/mqtt"
	"tagtone/player"
	"tagtone/presence"
	"tagtone/reader"
	"tagtone/store"
	"tagtone/web"
)

var myBuild string

// App holds the application state and dependencies.
type App struct {
	cfg        *Config
	mqtt       *mqtt.Client
	transport  reader.Transport
	monitor    *presence.Monitor
	store      *store.Store
	player     player.Player
	dispatcher *dispatch.Dispatcher
	indicator  indicator.Indicator
	controller *indicator.Controller
	broker     *broadcast.Broker
	pipe       *eventpipe.Pipe
	ctx        context.Context
	cancel     context.CancelFunc
}

func main() {
	fmt.Printf("tagtone build %s\n", myBuild)

	cfgfile := flag.String("cfg", "tagtone.cfg", "Config file")
	flag.Parse()

	// Load configuration
	f, err := os.Open(*cfgfile)
	if err != nil {
		log.Fatalf("Open config: %v", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		log.Fatalf("Decode config: %v", err)
	}

	if cfg.ClientID == "" {
		log.Fatal("client_id missing in config file")
	}

	// Create application context
	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		cfg:    &cfg,
		ctx:    ctx,
		cancel: cancel,
	}

	// Open the mapping store
	app.store, err = store.Open(cfg.Store)
	if err != nil {
		log.Fatalf("Open store: %v", err)
	}

	// Initialize playback backend
	app.player, err = player.New(cfg.Player)
	if err != nil {
		log.Fatalf("Init player: %v", err)
	}

	// Initialize indicator (LEDs, neopixels)
	app.indicator, err = indicator.New(cfg.Indicator)
	if err != nil {
		log.Fatalf("Init indicator: %v", err)
	}
	app.controller = indicator.NewController(app.indicator, cfg.Indicator)

	// Initialize tag reader transport
	app.transport, err = reader.New(cfg.Reader)
	if err != nil {
		log.Fatalf("Init reader: %v", err)
	}

	// Event fan-out to websocket and MQTT observers
	app.broker = broadcast.New(cfg.EventQueue)

	app.dispatcher = dispatch.New(app.store, app.player, dispatch.Hooks{
		OnResolved: app.onResolved,
		OnUnknown:  app.onUnknown,
		OnError:    app.onDispatchError,
	})

	app.monitor = presence.New(app.transport, cfg.Presence, presence.Events{
		OnScan:         app.onScan,
		OnRemove:       app.onRemove,
		OnReaderStatus: app.onReaderStatus,
	})

	app.store.OnChange(func() {
		app.broker.Publish(broadcast.MappingsUpdated())
	})

	// Event pipe for injecting simulated scans (debug)
	app.pipe, err = eventpipe.New(cfg.EventPipe, eventpipe.Handlers{
		OnTag:    app.onScan,
		OnRemove: app.onPipeRemove,
	})
	if err != nil {
		log.Fatalf("Init event pipe: %v", err)
	}
	if app.pipe != nil {
		go app.pipe.Start()
	}

	// HTTP API and websocket feed
	if cfg.Web.Listen != "" {
		srv := web.New(cfg.Web, app, app.broker)
		go func() {
			if err := srv.Run(ctx); err != nil {
				log.Printf("Web server: %v", err)
			}
		}()
	}

	// Initialize MQTT status plane
	app.mqtt, err = mqtt.New(cfg.MQTT, cfg.ClientID, mqtt.Handlers{
		OnConnect:    app.onMQTTConnect,
		OnDisconnect: app.onMQTTDisconnect,
		OnMessage:    app.onMQTTMessage,
	})
	if err != nil {
		log.Fatalf("Init MQTT: %v", err)
	}

	// Start background goroutines
	go func() {
		if err := app.mqtt.Connect(); err != nil {
			log.Printf("MQTT connect: %v", err)
		}
	}()
	go app.eventMirror()
	go app.pingSender()
	go app.monitor.Run(ctx)
	go app.dispatcher.Run(ctx)

	ctrlDone := make(chan struct{})
	go func() {
		app.controller.Run(ctx)
		close(ctrlDone)
	}()

	go app.progressLoop()

	if cfg.Sounds.Welcome != "" {
		if err := app.player.Play(cfg.Sounds.Welcome); err != nil {
			log.Printf("Welcome sound: %v", err)
		}
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	fmt.Println("Shutting down...")

	if cfg.Sounds.Farewell != "" {
		if err := app.player.Play(cfg.Sounds.Farewell); err != nil {
			log.Printf("Farewell sound: %v", err)
		}
	}

	cancel()

	// Let queued scans finish, but not forever
	select {
	case <-app.dispatcher.Done():
	case <-time.After(5 * time.Second):
		log.Println("Dispatcher drain timed out")
	}

	// Cleanup
	if app.pipe != nil {
		app.pipe.Close()
	}
	app.mqtt.Disconnect()
	app.broker.Close()
	app.transport.Close()
	app.player.Close()
	app.store.Close()
	<-ctrlDone
	app.indicator.Release()

	fmt.Println("Shutdown complete")
}

// onScan runs on the poll goroutine; everything it calls hands off to
// a worker without blocking.
func (app *App) onScan(tag string) {
	fmt.Printf("Tag scanned: %s\n", tag)
	app.controller.TagScanned()
	app.dispatcher.HandleScan(tag)
}

func (app *App) onRemove(tag string) {
	fmt.Printf("Tag removed: %s\n", tag)
	app.controller.TagRemoved()
	app.broker.Publish(broadcast.TagRemoved(tag))
}

func (app *App) onReaderStatus(available bool) {
	if available {
		log.Println("Reader recovered")
	} else {
		log.Println("Reader unavailable")
	}
	app.controller.ReaderStatus(available)
	app.broker.Publish(broadcast.ReaderStatus(available))
}

func (app *App) onResolved(tag string, action store.Action) {
	app.controller.Resolved(true)
	app.broker.Publish(broadcast.TagScanned(tag, action.Encode(), action.URI))
}

func (app *App) onUnknown(tag string) {
	app.controller.Resolved(false)
	app.broker.Publish(broadcast.TagScanned(tag, "", ""))

	// Audible cue so an unmapped tag is noticed even without the web UI
	if app.cfg.Sounds.Detected != "" {
		if err := app.player.Play(app.cfg.Sounds.Detected); err != nil {
			log.Printf("Detected sound: %v", err)
		}
	}
}

func (app *App) onDispatchError(tag string, err error) {
	app.controller.Resolved(false)
}

// onPipeRemove simulates a removal of whatever tag was last seen.
func (app *App) onPipeRemove() {
	tag := ""
	if s, ok := app.monitor.LastScan(); ok {
		tag = s.Tag
	}
	app.onRemove(tag)
}

// progressLoop feeds playback progress to the indicator so the ring can
// show remaining time. Only runs when the backend reports progress and
// the remaining display is enabled.
func (app *App) progressLoop() {
	if !app.cfg.Indicator.Remaining {
		return
	}
	src, ok := app.player.(interface{ Progress() (float64, bool) })
	if !ok {
		return
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-app.ctx.Done():
			return
		case <-ticker.C:
			if p, ok := src.Progress(); ok {
				app.controller.Progress(1 - p)
			}
		}
	}
}

// App is the web.Core the HTTP API talks to.

func (app *App) ListMappings() ([]store.Mapping, error) {
	return app.store.List()
}

func (app *App) GetMapping(tag string) (store.Mapping, error) {
	return app.store.Get(tag)
}

func (app *App) PutMapping(tag, action, description string) error {
	return app.store.Put(store.Mapping{
		Tag:         tag,
		Action:      store.DecodeAction(action),
		Description: description,
	})
}

func (app *App) DeleteMapping(tag string) (bool, error) {
	return app.store.Delete(tag)
}

func (app *App) LastScan() (presence.Scan, bool) {
	return app.monitor.LastScan()
}

func (app *App) ReaderAvailable() bool {
	return app.monitor.Available()
}
