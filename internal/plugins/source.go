package plugins

// Source produces candidate plugin registrations during discovery. The
// manager decides what to register and load; a source only enumerates what
// it can see, so discovery logic stays testable apart from filesystem and
// runtime concerns.
type Source interface {
	// Name identifies the source in logs.
	Name() string

	// Discover returns the registrations currently visible to this source.
	Discover() ([]Registration, error)
}

// StaticSource serves a fixed set of compiled-in registrations. Built-in
// Go commands are published through one of these.
type StaticSource struct {
	name string
	regs []Registration
}

// NewStaticSource returns a source serving the given registrations.
func NewStaticSource(name string, regs ...Registration) *StaticSource {
	return &StaticSource{name: name, regs: regs}
}

func (s *StaticSource) Name() string { return s.name }

func (s *StaticSource) Discover() ([]Registration, error) {
	out := make([]Registration, len(s.regs))
	copy(out, s.regs)

	return out, nil
}
