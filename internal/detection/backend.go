package detection

import (
	"fmt"
	"sort"
	"strings"
)

// Backend names accepted in Config.Backend.
const (
	BackendContour = "contour"
	BackendOpenCV  = "opencv"
)

var backends = map[string]func(Config) (Detector, error){
	BackendContour: func(cfg Config) (Detector, error) { return NewContourDetector(cfg) },
}

// New creates the detector named by cfg.Backend.
func New(cfg Config) (Detector, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if name == "" {
		name = BackendContour
	}

	create, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("detector backend %q is not available (have %s)", cfg.Backend, strings.Join(Backends(), ", "))
	}
	return create(cfg)
}

// Backends lists the backends compiled into this binary.
func Backends() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
