// Package ext loads native extensions into the bridge VM.
//
// An extension is a Go package exporting an entry point named
// Init_<name> that defines its classes and methods through package
// bridge. Extensions compiled into the binary call Register from an init
// function; others are Go plugins found on the search path (see
// SetSearchPath) unless the binary was built with the nodynlink tag.
package ext

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/chazu/maglink/bridge"
	"github.com/chazu/maglink/vm"
)

var (
	// ErrNotFound is returned when no extension of the requested name is
	// registered or can be found on the search path.
	ErrNotFound = errors.New("ext: extension not found")

	// ErrDynamicLinkDisabled is returned when a plugin would be needed but
	// the binary was built without plugin support.
	ErrDynamicLinkDisabled = errors.New("ext: dynamic linking disabled at build time")
)

// InitFunc is an extension entry point.
type InitFunc func()

var (
	mu         sync.Mutex
	entries    = make(map[string]InitFunc)
	loaded     = make(map[*vm.VM]map[string]bool)
	searchPath []string
)

func init() {
	bridge.OnShutdown(func(v *vm.VM) {
		mu.Lock()
		delete(loaded, v)
		mu.Unlock()
	})
}

func logger() commonlog.Logger {
	return commonlog.GetLogger("maglink.ext")
}

// Register makes a compiled-in extension available under name. It is
// meant to be called from init; registering a name twice panics.
func Register(name string, fn InitFunc) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := entries[name]; dup {
		panic(fmt.Sprintf("ext: extension %q registered twice", name))
	}
	entries[name] = fn
}

// Registered returns the names of the compiled-in extensions, sorted.
func Registered() []string {
	mu.Lock()
	defer mu.Unlock()
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetSearchPath sets the directories searched for <name>.so plugins.
func SetSearchPath(dirs []string) {
	mu.Lock()
	defer mu.Unlock()
	searchPath = append([]string(nil), dirs...)
}

// Require runs the entry point of extension name against the installed
// VM. Each entry point runs at most once per VM: later calls return false.
// A VM exception raised by the entry point propagates and leaves the
// extension unloaded.
func Require(name string) (bool, error) {
	v := bridge.Current()

	mu.Lock()
	if loaded[v][name] {
		mu.Unlock()
		return false, nil
	}
	fn, ok := entries[name]
	dirs := searchPath
	mu.Unlock()

	if !ok {
		var err error
		fn, err = openPlugin(name, dirs)
		if err != nil {
			return false, fmt.Errorf("ext: require %s: %w", name, err)
		}
	}

	if !markLoaded(v, name) {
		return false, nil
	}
	succeeded := false
	defer func() {
		if !succeeded {
			unmarkLoaded(v, name)
		}
	}()

	fn()
	succeeded = true
	logger().Infof("loaded extension %s", name)
	return true, nil
}

// IsLoaded reports whether name has been required into the installed VM.
func IsLoaded(name string) bool {
	v := bridge.Current()
	mu.Lock()
	defer mu.Unlock()
	return loaded[v][name]
}

func markLoaded(v *vm.VM, name string) bool {
	mu.Lock()
	defer mu.Unlock()
	if loaded[v][name] {
		return false
	}
	if loaded[v] == nil {
		loaded[v] = make(map[string]bool)
	}
	loaded[v][name] = true
	return true
}

func unmarkLoaded(v *vm.VM, name string) {
	mu.Lock()
	defer mu.Unlock()
	delete(loaded[v], name)
}

// Loader resolves the VM's require calls through Require.
type Loader struct{}

func (Loader) Require(name string) (bool, error) {
	return Require(name)
}

// Install makes require inside the installed VM load extensions.
func Install() {
	bridge.Current().SetLoader(Loader{})
}

// Preload installs the loader and requires each named extension.
func Preload(names []string) error {
	Install()
	for _, name := range names {
		if _, err := Require(name); err != nil {
			return err
		}
	}
	return nil
}
