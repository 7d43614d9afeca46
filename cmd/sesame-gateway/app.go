package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/sesame-gateway/internal/gateway"
	"github.com/sweeney/sesame-gateway/internal/logic"
	"github.com/sweeney/sesame-gateway/internal/mqtt"
	"github.com/sweeney/sesame-gateway/internal/resource"
	"github.com/sweeney/sesame-gateway/internal/status"
)

// valueClearer removes mirrored values at shutdown.
type valueClearer interface {
	Clear(ctx context.Context, paths []resource.Path) error
}

// app holds what the dispatch loop needs.
type app struct {
	gw        *gateway.Gateway
	tree      mqtt.Tree
	status    mqtt.ConnectionStatus
	mirror    valueClearer // optional
	tracker   *status.Tracker
	heartbeat *logic.Heartbeat
	now       func() time.Time
	log       *zap.Logger
}

// valuePaths returns every instance value the gateway publishes.
func valuePaths() []resource.Path {
	var paths []resource.Path
	for _, def := range resource.Definitions() {
		paths = append(paths, def.ValuePaths()...)
	}
	return paths
}

// startup registers the objects, seeds their values and subscribes to the
// execute resources. Execute commands are forwarded to exec; when it is full
// the command is dropped and logged.
func (a *app) startup(exec chan<- resource.Path) error {
	if err := a.tree.Register(resource.Definitions()); err != nil {
		return fmt.Errorf("register objects: %w", err)
	}

	if err := a.gw.Start(); err != nil {
		a.log.Error("initial sensor read failed", zap.Error(err))
	}

	handler := func(p resource.Path) {
		select {
		case exec <- p:
		default:
			a.log.Error("execute queue full, command dropped", zap.Stringer("path", p))
		}
	}
	if err := a.tree.Subscribe(resource.ExecutePaths(), handler); err != nil {
		return fmt.Errorf("subscribe execute paths: %w", err)
	}
	a.tracker.SetReady(true)

	a.publishStatus(mqtt.EventStartup, "")
	return nil
}

// runLoop dispatches edges, execute commands and ticks until a signal
// arrives. It returns the signal name.
func (a *app) runLoop(edges <-chan logic.Edge, exec <-chan resource.Path, tick <-chan time.Time, sig <-chan os.Signal) string {
	for {
		select {
		case s := <-sig:
			a.log.Info("signal received, shutting down", zap.Stringer("signal", s))
			return signalName(s)

		case e := <-edges:
			a.log.Debug("edge", zap.Stringer("channel", e.Channel), zap.Stringer("direction", e.Direction))
			a.gw.HandleEdge(e)

		case p := <-exec:
			if err := a.gw.Execute(p); err != nil {
				if errors.Is(err, gateway.ErrUnknownPath) {
					a.log.Error("execute ignored", zap.Error(err))
				} else {
					a.log.Error("execute failed", zap.Stringer("path", p), zap.Error(err))
				}
			}

		case <-tick:
			a.gw.Tick()
			a.tracker.SetMQTTConnected(a.status.IsConnected())

			if hb := a.heartbeat.Check(a.now()); hb != nil {
				a.log.Info("heartbeat", zap.Duration("uptime", hb.Uptime))
				if net := readNetworkInfo(); net != nil {
					a.tracker.SetNetwork(net)
				}
				a.publishStatus(mqtt.EventHeartbeat, "")
			}
		}
	}
}

// shutdown announces the shutdown, withdraws the resource tree and releases
// the relay.
func (a *app) shutdown(reason string) {
	a.tracker.SetMQTTConnected(a.status.IsConnected())
	a.publishStatus(mqtt.EventShutdown, reason)

	if err := a.tree.Unsubscribe(resource.ExecutePaths()); err != nil {
		a.log.Error("unsubscribe failed", zap.Error(err))
	}
	paths := valuePaths()
	if err := a.tree.Clear(paths); err != nil {
		a.log.Error("clearing resource values failed", zap.Error(err))
	}
	if a.mirror != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := a.mirror.Clear(ctx, paths); err != nil {
			a.log.Error("clearing mirrored values failed", zap.Error(err))
		}
		cancel()
	}

	a.gw.Shutdown()
}

func (a *app) publishStatus(event, reason string) {
	snap := a.tracker.Snapshot()
	ev := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      event,
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	}
	if err := a.tree.PublishSystem(ev); err != nil {
		a.log.Error("system event publish failed", zap.String("event", event), zap.Error(err))
		return
	}
	a.log.Info("published system event", zap.String("event", event))
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
