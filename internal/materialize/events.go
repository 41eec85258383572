package materialize

import "sync"

// Event is a materialization progress event. The concrete types are the
// Started/Finished pairs below; phases are reported in the order copy,
// version-fix, name-fix (only for multi-package projects), substitution.
type Event interface {
	event()
}

// CopyStarted precedes the copy phase.
type CopyStarted struct {
	Instructions int
}

// CopyFinished follows the copy phase.
type CopyFinished struct {
	Files int
}

// VersionFixStarted precedes the version-fix phase.
type VersionFixStarted struct {
	Manifests []string
}

// VersionFixFinished follows the version-fix phase. Versions maps each
// manifest path to its resolved dependencies.
type VersionFixFinished struct {
	Versions map[string]map[string]string
}

// PackageResolveStarted is reported before a single dependency is resolved.
type PackageResolveStarted struct {
	Manifest string
	Package  string
	Range    string
}

// PackageResolveFinished is reported after a single dependency resolved.
type PackageResolveFinished struct {
	Manifest string
	Package  string
	Range    string
	Version  string
}

// NameFixStarted precedes the name-fix phase.
type NameFixStarted struct {
	From string
	To   string
}

// NameFixFinished follows the name-fix phase.
type NameFixFinished struct {
	Modified []string
}

// SubstituteStarted precedes the placeholder substitution phase.
type SubstituteStarted struct {
	Replacements map[string]string
}

// SubstituteFinished follows the placeholder substitution phase.
type SubstituteFinished struct {
	Modified []string
}

func (CopyStarted) event()            {}
func (CopyFinished) event()           {}
func (VersionFixStarted) event()      {}
func (VersionFixFinished) event()     {}
func (PackageResolveStarted) event()  {}
func (PackageResolveFinished) event() {}
func (NameFixStarted) event()         {}
func (NameFixFinished) event()        {}
func (SubstituteStarted) event()      {}
func (SubstituteFinished) event()     {}

// Observer receives materialization events. Calls are never concurrent.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnEvent calls f(e).
func (f ObserverFunc) OnEvent(e Event) {
	f(e)
}

// emitter serializes event delivery from concurrent resolutions.
type emitter struct {
	mu       sync.Mutex
	observer Observer
}

func (e *emitter) emit(ev Event) {
	if e.observer == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observer.OnEvent(ev)
}
