//go:build !nodynlink && (linux || darwin)

package ext

import (
	"fmt"
	"os"
	"path/filepath"
	"plugin"
)

// openPlugin searches dirs for <name>.so and returns its Init_<name>
// entry point.
func openPlugin(name string, dirs []string) (InitFunc, error) {
	for _, dir := range dirs {
		path := filepath.Join(dir, name+".so")
		if _, err := os.Stat(path); err != nil {
			continue
		}

		logger().Debugf("opening plugin %s", path)
		p, err := plugin.Open(path)
		if err != nil {
			return nil, fmt.Errorf("cannot open %s: %w", path, err)
		}
		sym, err := p.Lookup("Init_" + name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		fn, ok := sym.(func())
		if !ok {
			return nil, fmt.Errorf("%s: Init_%s has type %T, want func()", path, name, sym)
		}
		return fn, nil
	}
	return nil, ErrNotFound
}
