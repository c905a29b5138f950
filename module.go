package desim

// module.go implements Component D, the Module Tree: an id-keyed
// arena of module instances plus a dotted-path index. Grounded on the
// teacher's id-indexed global arena (net.go's TopoDevByID/DevName
// pattern), generalized into a Kernel-owned arena (no package
// globals) so independent simulations can be partitioned across
// goroutines per §5 without sharing state.

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// ModuleID is a stable integer identifier for a module instance.
type ModuleID uint64

// Handler is user code bound to a module. All three callbacks run
// under Handler Invocation (§4.I): the Module Context is populated
// before the call and torn down after.
type Handler interface {
	// AtSimStart runs once, in build order, before the first event is
	// dispatched.
	AtSimStart(ctx *Context)
	// HandleMessage runs once per MessageArrival/SelfMessage event
	// delivered to this module, after the hook chain has passed the
	// message through.
	HandleMessage(ctx *Context, msg *Message)
	// AtSimEnd runs once, in reverse build order, after the run
	// terminates (subject to failure policy for poisoned modules).
	AtSimEnd(ctx *Context)
}

// Module is one instance in the tree: identity, handler state, weak
// parent/child references (by id), and a gate table.
type Module struct {
	ID       ModuleID
	Path     string
	Name     string
	ParentID ModuleID
	hasParent bool
	ChildIDs []ModuleID

	Handler Handler
	hooks   *hookChain

	poisoned bool
	torndown bool

	gateNames []string // gate cluster names owned by this module, in creation order
}

// Tree is the Kernel-owned arena of Module instances.
type Tree struct {
	byID    map[ModuleID]*Module
	byPath  map[string]ModuleID
	nextID  ModuleID
	declOrd []ModuleID // declaration order, for at_sim_start/at_sim_end
}

// NewTree constructs an empty Module Tree.
func NewTree() *Tree {
	return &Tree{
		byID:   make(map[ModuleID]*Module),
		byPath: make(map[string]ModuleID),
	}
}

// Insert creates a module named name under parentID (0/hasParent=false
// for a root module) bound to handler. Returns BuildError on a
// duplicate path or a missing parent.
func (t *Tree) Insert(parentID ModuleID, hasParent bool, name string, handler Handler) (*Module, error) {
	var path string
	if hasParent {
		parent, ok := t.byID[parentID]
		if !ok {
			return nil, fmt.Errorf("%w: parent module %d does not exist", ErrBuild, parentID)
		}
		path = parent.Path + "." + name
	} else {
		path = name
	}
	if _, dup := t.byPath[path]; dup {
		return nil, fmt.Errorf("%w: duplicate module path %q", ErrBuild, path)
	}
	t.nextID++
	m := &Module{
		ID:        t.nextID,
		Path:      path,
		Name:      name,
		ParentID:  parentID,
		hasParent: hasParent,
		Handler:   handler,
		hooks:     newHookChain(),
	}
	t.byID[m.ID] = m
	t.byPath[path] = m.ID
	t.declOrd = append(t.declOrd, m.ID)
	if hasParent {
		parent := t.byID[parentID]
		parent.ChildIDs = append(parent.ChildIDs, m.ID)
	}
	return m, nil
}

// Lookup returns the module with the given id.
func (t *Tree) Lookup(id ModuleID) (*Module, bool) {
	m, ok := t.byID[id]
	return m, ok
}

// LookupByPath returns the module at the given dotted path.
func (t *Tree) LookupByPath(path string) (*Module, bool) {
	id, ok := t.byPath[path]
	if !ok {
		return nil, false
	}
	return t.byID[id], true
}

// DeclarationOrder returns module ids in the order they were inserted.
func (t *Tree) DeclarationOrder() []ModuleID {
	out := make([]ModuleID, len(t.declOrd))
	copy(out, t.declOrd)
	return out
}

// IterSubtree calls fn for id and every descendant, pre-order.
func (t *Tree) IterSubtree(id ModuleID, fn func(*Module)) {
	m, ok := t.byID[id]
	if !ok {
		return
	}
	fn(m)
	for _, c := range m.ChildIDs {
		t.IterSubtree(c, fn)
	}
}

// PostOrder returns every module in the subtree rooted at id,
// children before parents, without mutating the tree. Used so
// at_sim_end can run (with the tree still intact for Context
// accessors like Parent/Child) before RemoveSubtree tears the arena
// down.
func (t *Tree) PostOrder(id ModuleID) []*Module {
	m, ok := t.byID[id]
	if !ok {
		return nil
	}
	var out []*Module
	for _, c := range m.ChildIDs {
		out = append(out, t.PostOrder(c)...)
	}
	out = append(out, m)
	return out
}

// RemoveSubtree tears the subtree rooted at id down in post-order,
// detaching children from parents before modules are dropped from the
// arena so no weak reference is ever left dangling-but-unresolved: a
// lookup on a removed id simply misses.
func (t *Tree) RemoveSubtree(id ModuleID) []*Module {
	m, ok := t.byID[id]
	if !ok {
		return nil
	}
	var removed []*Module
	for _, c := range append([]ModuleID(nil), m.ChildIDs...) {
		removed = append(removed, t.RemoveSubtree(c)...)
	}
	removed = append(removed, m)
	delete(t.byID, id)
	delete(t.byPath, m.Path)
	m.torndown = true
	if m.hasParent {
		if parent, ok := t.byID[m.ParentID]; ok {
			if idx := slices.Index(parent.ChildIDs, id); idx >= 0 {
				parent.ChildIDs = slices.Delete(parent.ChildIDs, idx, idx+1)
			}
		}
	}
	return removed
}

// InSubtree reports whether target is id or a descendant of id,
// searching the (possibly already-removed) declaration path string —
// used by dispatch to decide whether a queued event's target lies
// under a torn-down subtree even after the arena entry is gone.
func (t *Tree) InSubtree(root, target ModuleID, rootPath string) bool {
	if root == target {
		return true
	}
	if m, ok := t.byID[target]; ok {
		return strings.HasPrefix(m.Path, rootPath+".")
	}
	return false
}
