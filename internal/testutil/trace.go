package testutil

// FixedTraceGenerator returns the same trace ID every time.
//
// The same command run with the same FixedTraceGenerator produces
// byte-identical CLI output, which makes it usable in golden files.
type FixedTraceGenerator struct {
	id string
}

// NewFixedTraceGenerator creates a generator returning id.
// If id is empty, Generate returns "test-trace-default".
func NewFixedTraceGenerator(id string) *FixedTraceGenerator {
	if id == "" {
		id = "test-trace-default"
	}
	return &FixedTraceGenerator{id: id}
}

// Generate returns the fixed trace ID.
func (g *FixedTraceGenerator) Generate() string {
	return g.id
}
