package watcher

import (
	"io/fs"
	"sort"
	"time"
)

// poller detects changes by periodically rescanning the tree. Used as a
// fallback when fsnotify is not available or fails.
type poller struct {
	walker    *walker
	fileState map[string]fileSnapshot
}

type fileSnapshot struct {
	modTime time.Time
	size    int64
}

// change is one detected difference between two scans.
type change struct {
	rel string
	op  Operation
}

func newPoller(w *walker) *poller {
	return &poller{
		walker:    w,
		fileState: make(map[string]fileSnapshot),
	}
}

// record adds a file to the baseline.
func (p *poller) record(rel string, info fs.FileInfo) {
	p.fileState[rel] = snapshotOf(info)
}

func snapshotOf(info fs.FileInfo) fileSnapshot {
	return fileSnapshot{modTime: info.ModTime(), size: info.Size()}
}

// detectChanges rescans the tree, compares it with the previous scan and
// returns the differences sorted by path.
func (p *poller) detectChanges(onErr func(error)) []change {
	current := make(map[string]fileSnapshot, len(p.fileState))
	var changes []change

	p.walker.walk("", visitor{
		file: func(rel string, info fs.FileInfo) {
			snapshot := snapshotOf(info)
			current[rel] = snapshot

			prev, exists := p.fileState[rel]
			switch {
			case !exists:
				changes = append(changes, change{rel: rel, op: OpAdd})
			case !prev.modTime.Equal(snapshot.modTime) || prev.size != snapshot.size:
				changes = append(changes, change{rel: rel, op: OpChange})
			}
		},
		err: onErr,
	})

	for rel := range p.fileState {
		if _, exists := current[rel]; !exists {
			changes = append(changes, change{rel: rel, op: OpRemove})
		}
	}

	p.fileState = current

	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].rel < changes[j].rel
	})
	return changes
}
