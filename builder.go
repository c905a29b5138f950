package desim

// builder.go implements Component J, the Builder: consumes a
// BuildSpec and instantiates Components D-I. Two-phase order —
// modules and gates first, connections last — is grounded on the
// teacher's desc-topo.go Consolidate/createTopoReferences sequencing
// ("gate creation precedes connection" / "parents before children").

import "fmt"

// Build instantiates spec's modules, gate clusters, and connections
// into k. No events are produced by a failed build (§4.J); the first
// error aborts immediately.
func Build(k *Kernel, spec BuildSpec, registry HandlerRegistry) error {
	pathToID := make(map[string]ModuleID)     // full dotted path -> id, for Connections
	declaredToID := make(map[string]ModuleID) // ms.Path as written in the spec -> id, for ParentPath

	for _, ms := range spec.Modules {
		factory, ok := registry[ms.TypeTag]
		if !ok {
			return fmt.Errorf("%w: no handler factory registered for type_tag %q (module %q)",
				ErrBuild, ms.TypeTag, ms.Path)
		}

		var parentID ModuleID
		hasParent := ms.ParentPath != ""
		if hasParent {
			// ParentPath names the parent's own ms.Path as declared, not its
			// full dotted path: a spec author references a sibling module by
			// the same string that module declared itself under.
			id, ok := declaredToID[ms.ParentPath]
			if !ok {
				return fmt.Errorf("%w: module %q declares parent %q before it is built",
					ErrBuild, ms.Path, ms.ParentPath)
			}
			parentID = id
		}

		m, err := k.tree.Insert(parentID, hasParent, ms.Path, factory())
		if err != nil {
			return err
		}
		pathToID[m.Path] = m.ID
		declaredToID[ms.Path] = m.ID

		for _, gc := range ms.GateClusters {
			if err := k.gates.CreateCluster(m.ID, gc.Name, gc.Size, gc.Direction); err != nil {
				return err
			}
			m.gateNames = append(m.gateNames, gc.Name)
		}
	}

	for _, c := range spec.Connections {
		srcID, ok := pathToID[c.SrcPath]
		if !ok {
			return fmt.Errorf("%w: connection references unknown module %q", ErrBuild, c.SrcPath)
		}
		dstID, ok := pathToID[c.DstPath]
		if !ok {
			return fmt.Errorf("%w: connection references unknown module %q", ErrBuild, c.DstPath)
		}
		src := GateID{Module: srcID, Name: c.SrcGate, Index: c.SrcIndex}
		dst := GateID{Module: dstID, Name: c.DstGate, Index: c.DstIndex}

		var ch *Channel
		if c.Channel != nil {
			ch = NewChannel(fmt.Sprintf("%s->%s#%d", src, dst, k.config.Seed), ChannelParams{
				BitrateBps:   c.Channel.BitrateBps,
				LatencyS:     c.Channel.LatencyS,
				JitterS:      c.Channel.JitterS,
				QueueSize:    c.Channel.QueueSize,
				Distribution: c.Channel.Distribution,
			})
		}
		if err := k.gates.Connect(src, dst, ch); err != nil {
			return err
		}
	}

	return nil
}
