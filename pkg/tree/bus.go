package tree

import (
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"
)

// ChangeType enumerates the kinds of change notifications a tree emits.
type ChangeType uint8

const (
	// FolderAdded is emitted once per folder created, including the
	// intermediate folders a path-based operation fills in.
	FolderAdded ChangeType = iota
	// LeafAdded is emitted when a value is wrapped into a new leaf.
	LeafAdded
	// ObjectMoved is emitted when a node changes parent.
	ObjectMoved
	// ObjectRenamed is emitted when a node's stored name changes in place.
	ObjectRenamed
	// FolderMerged is emitted for the source folder of a merge, before
	// any of its children move.
	FolderMerged
	// PartialMerge is emitted instead of a removal when a merge leaves
	// children behind in the source folder.
	PartialMerge
	// ObjectRemoved is emitted when a node and its subtree leave the tree.
	ObjectRemoved
	// ExpandedChange, LockedChange and SelectedChange are emitted when the
	// corresponding flag actually flips.
	ExpandedChange
	LockedChange
	SelectedChange
	// ReloadStarting announces that the whole tree is about to be
	// replaced; observers snapshot what they need to survive it.
	ReloadStarting
	// Reloaded announces that the tree has been repopulated.
	Reloaded
)

var changeTypeNames = [...]string{
	"folder-added",
	"leaf-added",
	"object-moved",
	"object-renamed",
	"folder-merged",
	"partial-merge",
	"object-removed",
	"expanded-change",
	"locked-change",
	"selected-change",
	"reload-starting",
	"reloaded",
}

func (t ChangeType) String() string {
	if int(t) < len(changeTypeNames) {
		return changeTypeNames[t]
	}
	return fmt.Sprintf("ChangeType(%d)", uint8(t))
}

// Change is one immutable tree change notification.
type Change struct {
	Type ChangeType
	// Node is the node the edit primarily affected. For ReloadStarting
	// and Reloaded it is the tree's root.
	Node Node
}

type subscriber struct {
	name     string
	priority int
	fn       func(Change)
}

// Bus delivers changes to named subscribers in ascending priority order;
// larger priorities run later, and equal priorities run in registration
// order, so dispatch is deterministic.
//
// Dispatch iterates a snapshot of the subscriber list, which makes emitting
// re-entrant: a callback may subscribe, unsubscribe (itself included) or
// trigger further changes. A subscriber removed mid-dispatch still sees the
// in-flight change; one added mid-dispatch does not.
type Bus struct {
	name string
	log  logrus.FieldLogger
	subs []subscriber
}

// NewBus returns an empty bus. A nil log falls back to the standard logger.
func NewBus(name string, log logrus.FieldLogger) *Bus {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Bus{name: name, log: log}
}

// Name returns the bus name used in log messages.
func (b *Bus) Name() string { return b.name }

// Subscribe registers fn under name. Re-subscribing an existing name moves
// it to the new priority instead of duplicating it.
func (b *Bus) Subscribe(name string, priority int, fn func(Change)) {
	b.Unsubscribe(name)
	at := len(b.subs)
	for i, s := range b.subs {
		if s.priority > priority {
			at = i
			break
		}
	}
	b.subs = slices.Insert(b.subs, at, subscriber{name: name, priority: priority, fn: fn})
}

// Unsubscribe removes the named subscriber if present.
func (b *Bus) Unsubscribe(name string) {
	for i, s := range b.subs {
		if s.name == name {
			b.subs = slices.Delete(b.subs, i, i+1)
			return
		}
	}
}

// Emit delivers c to every subscriber. A panicking subscriber is logged with
// the bus and subscriber names, then the panic is re-raised, so subscribers
// later in the order do not observe the change.
func (b *Bus) Emit(c Change) {
	for _, s := range slices.Clone(b.subs) {
		b.invoke(s, c)
	}
}

func (b *Bus) invoke(s subscriber, c Change) {
	defer func() {
		if r := recover(); r != nil {
			b.log.WithFields(logrus.Fields{
				"bus":        b.name,
				"subscriber": s.name,
				"change":     c.Type.String(),
			}).Errorf("subscriber panicked: %v", r)
			panic(r)
		}
	}()
	s.fn(c)
}
