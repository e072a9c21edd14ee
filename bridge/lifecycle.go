package bridge

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/tliron/commonlog"

	"github.com/chazu/maglink/config"
	"github.com/chazu/maglink/vm"
)

var (
	// ErrNotInitialized is panicked by Current when no VM is installed.
	ErrNotInitialized = errors.New("bridge: VM not initialized")

	// ErrAlreadyInitialized is returned by InitWith and Attach when a VM is
	// already installed.
	ErrAlreadyInitialized = errors.New("bridge: VM already initialized")
)

var (
	lifecycleMu   sync.Mutex
	current       atomic.Pointer[vm.VM]
	shutdownHooks []func(*vm.VM)
)

func logger() commonlog.Logger {
	return commonlog.GetLogger("maglink.bridge")
}

// Init creates the process-wide VM with default settings. The calling
// goroutine becomes the VM's owner.
//
// Init must run before anything else in this package. Calling it again
// while a VM is installed does nothing except log a warning.
func Init() {
	if err := InitWith(config.Default()); errors.Is(err, ErrAlreadyInitialized) {
		logger().Warning("Init called with a VM already installed; ignoring")
	}
}

// InitWith creates the process-wide VM from cfg. It returns
// ErrAlreadyInitialized if a VM is already installed.
func InitWith(cfg *config.Config) error {
	lifecycleMu.Lock()
	defer lifecycleMu.Unlock()

	if current.Load() != nil {
		return ErrAlreadyInitialized
	}
	opts := cfg.VMOptions()
	opts.Logger = commonlog.GetLogger("maglink.vm")
	current.Store(vm.NewVM(opts))
	logger().Infof("VM initialized (gc threshold %d, max depth %d)", opts.GCThreshold, opts.MaxDepth)
	return nil
}

// Attach installs a VM that the host process started itself. It returns
// ErrAlreadyInitialized if a VM is already installed.
func Attach(v *vm.VM) error {
	lifecycleMu.Lock()
	defer lifecycleMu.Unlock()

	if current.Load() != nil {
		return ErrAlreadyInitialized
	}
	current.Store(v)
	logger().Info("attached to an existing VM")
	return nil
}

// IsInitialized reports whether a VM is installed.
func IsInitialized() bool {
	return current.Load() != nil
}

// Current returns the installed VM. Calling it before Init is a
// precondition violation and panics with ErrNotInitialized.
func Current() *vm.VM {
	v := current.Load()
	if v == nil {
		panic(ErrNotInitialized)
	}
	return v
}

// OnShutdown registers fn to run, with the outgoing VM, on every
// Shutdown. Packages that cache per-VM state use it to drop that state.
func OnShutdown(fn func(*vm.VM)) {
	lifecycleMu.Lock()
	defer lifecycleMu.Unlock()
	shutdownHooks = append(shutdownHooks, fn)
}

// Shutdown uninstalls the VM so Init may run again. It is best effort:
// the shared worker is stopped, shutdown hooks run and, when called from
// a goroutine allowed into the VM, a final collection runs so Data free
// callbacks fire for everything unrooted. Roots still registered are left
// to the discarded VM.
func Shutdown() {
	lifecycleMu.Lock()
	defer lifecycleMu.Unlock()

	v := current.Load()
	if v == nil {
		return
	}
	stopSharedWorker()
	for _, fn := range shutdownHooks {
		fn(v)
	}
	if v.IsRegisteredGoroutine() {
		stats := v.CollectGarbage()
		logger().Debugf("final collection freed %d objects", stats.LastFreed)
	}
	current.Store(nil)
	logger().Info("VM shut down")
}
