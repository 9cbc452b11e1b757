// Package watcher tracks the Lua sources below a root directory and reports
// every add, change and remove in the order it was observed.
//
// The watcher first enumerates the tree and delivers one OpAdd per tracked
// file, followed by a single OpReady event. After that it reports live
// changes:
//   - Primary: fsnotify for efficient event-based watching
//   - Fallback: Polling for environments where fsnotify fails (network mounts, Docker volumes)
//
// Live events pass through a short atomic-write window so that editors that
// save by writing a temp file and renaming it over the original produce one
// OpChange instead of a remove/add pair.
//
// Usage:
//
//	w, err := watcher.NewHybridWatcher(watcher.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	go func() { _ = w.Start(ctx, "./src") }()
//
//	for event := range w.Events() {
//	    switch event.Operation {
//	    case watcher.OpAdd, watcher.OpChange:
//	        // Read event.Path
//	    case watcher.OpRemove:
//	        // Forget event.Path
//	    case watcher.OpReady:
//	        // Initial scan complete
//	    }
//	}
package watcher
