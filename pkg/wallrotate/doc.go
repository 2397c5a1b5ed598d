// Package wallrotate provides an embeddable wallpaper rotation engine.
//
// A Rotator picks a random image from the configured directories, avoiding
// images already shown until every image has been shown once, and applies it
// as the desktop background. Rotations are driven by a periodic timer and by
// changes to the state and config records; an interval gate makes sure at
// most one rotation happens per configured interval no matter how many
// triggers arrive.
//
// # Basic Usage
//
//	r, err := wallrotate.New(wallrotate.Config{WorkDir: "/home/me/.wallrotate"},
//	    wallrotate.WithLogger(logger),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := r.Bootstrap(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	if err := r.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	// ... run until shutdown signal ...
//
//	if err := r.Stop(); err != nil {
//	    log.Printf("shutdown error: %v", err)
//	}
//
// # Records
//
// The state record (state.json) holds the last rotation time and the visited
// images. The config record (config.json) holds the interval in seconds and
// the image directories; it is read fresh on every attempt, so edits apply
// without a restart.
//
// # Event Handling
//
// Implement [EventHandler] (embedding [BaseEventHandler]) and pass it with
// [WithEventHandler] to observe lifecycle changes, triggers and outcomes.
//
// # Plugins
//
// Plugins are registered with [WithPlugin]. A plugin that also implements
// [OutcomeObserver] or [TriggerObserver] receives the corresponding events:
//
//	import "github.com/bft-labs/wallrotate/plugins/metrics"
//	import "github.com/bft-labs/wallrotate/plugins/history"
//
//	r, err := wallrotate.New(cfg,
//	    metrics.WithMetrics(metrics.Config{Addr: ":9108"}),
//	    history.WithHistory(history.Config{Path: "history.db"}),
//	)
//
// # Lifecycle States
//
// A Rotator is in one of [StateStopped], [StateStarting], [StateRunning],
// [StateStopping] or [StateCrashed]. Use [Rotator.Status] to query it.
package wallrotate
