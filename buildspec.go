package desim

// buildspec.go defines the Build spec (§6): the flat, structural
// description the Builder consumes, produced externally by the NDL
// front-end (out of scope, §1). Grounded on the teacher's desc-topo.go
// TopoCfg — a YAML-loadable declarative graph of devices, interfaces,
// and connections — generalized from mrnes's fixed device vocabulary
// (Endpt/Switch/Router) into arbitrary user module type tags resolved
// through a HandlerFactory registry.

// GateClusterSpec declares one named gate cluster on a module.
type GateClusterSpec struct {
	Name      string    `yaml:"name"`
	Size      int       `yaml:"size"`
	Direction Direction `yaml:"direction"`
}

// ModuleSpec declares one module instantiation. Path is the dotted
// path relative to its parent (just the leaf name); parents must
// appear before children in the Modules slice (§4.J "Builds modules
// in declaration order, creating parents before children").
type ModuleSpec struct {
	Path         string            `yaml:"path"`
	ParentPath   string            `yaml:"parent_path,omitempty"`
	TypeTag      string            `yaml:"type_tag"`
	GateClusters []GateClusterSpec `yaml:"gate_clusters,omitempty"`
}

// ChannelSpec describes a Channel's immutable parameters, to be
// attached to at most one connection edge.
type ChannelSpec struct {
	BitrateBps   float64            `yaml:"bitrate_bps"`
	LatencyS     float64            `yaml:"latency_s"`
	JitterS      float64            `yaml:"jitter_s"`
	QueueSize    int                `yaml:"queue_size"`
	Distribution JitterDistribution `yaml:"distribution,omitempty"`
}

// ConnectionSpec declares one connection edge between two gates,
// optionally carrying a channel. SrcPath/DstPath are full dotted
// paths (root-relative), unlike a ModuleSpec's own leaf-only Path.
type ConnectionSpec struct {
	SrcPath  string       `yaml:"src_path"`
	SrcGate  string       `yaml:"src_gate"`
	SrcIndex int          `yaml:"src_index"`
	DstPath  string       `yaml:"dst_path"`
	DstGate  string       `yaml:"dst_gate"`
	DstIndex int          `yaml:"dst_index"`
	Channel  *ChannelSpec `yaml:"channel,omitempty"`
}

// BuildSpec is the complete declarative topology consumed by Build.
type BuildSpec struct {
	Modules     []ModuleSpec     `yaml:"modules"`
	Connections []ConnectionSpec `yaml:"connections"`
}

// HandlerFactory builds the per-instance Handler state for a
// type_tag. This is the consumption interface for the derive-macro /
// code-generation pipeline (§1, out of scope): the core only needs the
// resulting factory function.
type HandlerFactory func() Handler

// HandlerRegistry maps a BuildSpec's type_tag strings to the factory
// that allocates that module type's state.
type HandlerRegistry map[string]HandlerFactory
