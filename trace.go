package desim

// trace.go implements the observability sink of §6: TraceRecord
// variants emitted in dispatch order. Grounded closely on the
// teacher's TraceManager (InUse/AddTrace/WriteToFile), retyped from a
// free-form TraceInst string bag into the closed TraceRecord sum type
// §6 specifies, and from a package-global (devTraceMgr in mrnes.go)
// into a Kernel-owned value per the same "no shared mutable globals"
// principle as Component G.

import (
	"encoding/json"
	"os"
	"path"

	"gopkg.in/yaml.v3"
)

// TraceKind discriminates a TraceRecord.
type TraceKind int

const (
	TraceDispatch TraceKind = iota
	TraceSend
	TraceDrop
	TraceError
)

// TraceRecord is one observability event, emitted in dispatch order.
type TraceRecord struct {
	Kind TraceKind `yaml:"kind" json:"kind"`
	Time Time      `yaml:"time" json:"time"`

	ModuleID  ModuleID  `yaml:"module_id,omitempty" json:"module_id,omitempty"`
	EventKind EventKind `yaml:"event_kind,omitempty" json:"event_kind,omitempty"`

	SrcGate *GateID `yaml:"src_gate,omitempty" json:"src_gate,omitempty"`
	DstGate *GateID `yaml:"dst_gate,omitempty" json:"dst_gate,omitempty"`

	ChannelID string `yaml:"channel_id,omitempty" json:"channel_id,omitempty"`
	Reason    string `yaml:"reason,omitempty" json:"reason,omitempty"`

	Detail string `yaml:"detail,omitempty" json:"detail,omitempty"`
}

// Sink receives TraceRecords as the kernel produces them. A Kernel
// with a nil Sink simply doesn't trace.
type Sink interface {
	Record(TraceRecord)
}

// Trace is the default in-memory Sink, matching the teacher's
// TraceManager: an InUse flag that can inhibit collection entirely,
// and WriteToFile dispatching on file extension between YAML and
// JSON.
type Trace struct {
	InUse   bool
	records []TraceRecord
}

// NewTrace constructs a Trace. active mirrors the teacher's
// CreateTraceManager(name, active) convention (desim has no
// per-experiment name to carry, so it's dropped).
func NewTrace(active bool) *Trace {
	return &Trace{InUse: active}
}

// Record appends rec if the trace is active.
func (t *Trace) Record(rec TraceRecord) {
	if !t.InUse {
		return
	}
	t.records = append(t.records, rec)
}

// Records returns every collected record, in dispatch order.
func (t *Trace) Records() []TraceRecord {
	return t.records
}

// WriteToFile serializes the trace to filename, choosing YAML or JSON
// by extension (.yaml/.yml vs anything else), matching the teacher's
// TraceManager.WriteToFile.
func (t *Trace) WriteToFile(filename string) error {
	ext := path.Ext(filename)
	var bytes []byte
	var err error
	if ext == ".yaml" || ext == ".yml" {
		bytes, err = yaml.Marshal(t.records)
	} else {
		bytes, err = json.MarshalIndent(t.records, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(filename, bytes, 0o644)
}
