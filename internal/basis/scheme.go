package basis

import (
	"fmt"
	"strings"
)

// Scheme selects the basis family and, through it, the stencil size.
type Scheme int

const (
	Linear Scheme = iota
	GIMP
)

func (s Scheme) String() string {
	switch s {
	case Linear:
		return "linear"
	case GIMP:
		return "gimp"
	default:
		return fmt.Sprintf("scheme(%d)", int(s))
	}
}

// StencilSize is the number of nodes with possibly non-zero weight.
func (s Scheme) StencilSize() int {
	if s == GIMP {
		return 16
	}
	return 4
}

// ParseScheme accepts "linear"/"mpm" and "gimp", case-insensitively.
func ParseScheme(name string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "linear", "mpm", "":
		return Linear, nil
	case "gimp":
		return GIMP, nil
	}
	return Linear, fmt.Errorf("unknown basis scheme: %s", name)
}

func (s Scheme) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Scheme) UnmarshalText(b []byte) error {
	v, err := ParseScheme(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
