//go:build nodynlink || !(linux || darwin)

package ext

// openPlugin finds nothing: only compiled-in extensions can be loaded.
func openPlugin(name string, dirs []string) (InitFunc, error) {
	if len(dirs) == 0 {
		return nil, ErrNotFound
	}
	return nil, ErrDynamicLinkDisabled
}
