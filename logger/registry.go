package logger

import "sync"

// registry caches one logger per component name, derived from the global
// logger at first use.
var registry = &componentLoggers{loggers: make(map[string]*Logger)}

type componentLoggers struct {
	mu      sync.Mutex
	loggers map[string]*Logger
}

func (r *componentLoggers) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.loggers)
}

// Get returns the logger for a component such as "manager" or "eip1193".
// The result is tagged with the component name and reused across calls until
// the next Init.
func Get(name string) *Logger {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if l, ok := registry.loggers[name]; ok {
		return l
	}
	l := GetGlobalLogger().WithComponent(name)
	registry.loggers[name] = l
	return l
}
