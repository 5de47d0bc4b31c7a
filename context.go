package parce

// Context is an ordered sequence of children, each a Token or a *Context.
// pos/end are derived from the first/last descendant token rather than
// stored, so the builder's lazy position shift never has to touch a
// Context directly.
type Context struct {
	Lexicon  *Lexicon
	parent   *Context
	children []Node
}

func (c *Context) isNode() {}

// NewContext creates an empty context for lexicon, owned by parent (nil for
// a root). The builder attaches it to its parent as soon as it is pushed
// and adds children with Append; a Context with no children by the time
// its lexicon is popped is removed from its parent again (DiscardIfEmpty)
// — the builder enforces that, not Context itself.
func NewContext(lexicon *Lexicon, parent *Context) *Context {
	return &Context{Lexicon: lexicon, parent: parent}
}

// Parent returns the enclosing context, or nil for the root.
func (c *Context) Parent() *Context { return c.parent }

// Children returns the context's ordered children. The returned slice is
// shared with the context; callers must not mutate it.
func (c *Context) Children() []Node { return c.children }

// Len returns the number of direct children.
func (c *Context) Len() int { return len(c.children) }

// Append adds a child, setting its parent. Tokens and Contexts may only
// have one parent at a time; Append does not check this, the builder is
// responsible for never double-attaching a node.
func (c *Context) Append(n Node) {
	switch t := n.(type) {
	case *Token:
		t.parent = c
	case *Context:
		t.parent = c
	}
	c.children = append(c.children, n)
}

// SetChildren replaces the full child list at once (used by the builder
// when splicing a rebuilt suffix into place), reparenting each.
func (c *Context) SetChildren(nodes []Node) {
	c.children = nodes
	for _, n := range nodes {
		switch t := n.(type) {
		case *Token:
			t.parent = c
		case *Context:
			t.parent = c
		}
	}
}

// Empty reports whether the context has no children. Such a context is
// removed from its parent when it is popped.
func (c *Context) Empty() bool { return len(c.children) == 0 }

// DiscardIfEmpty removes c from its parent's children if c has gained none
// of its own by the time it is popped — a completed context is never
// left empty in the tree. Reports whether it was removed; always false
// for a root context (no parent to detach from).
func (c *Context) DiscardIfEmpty() bool {
	if !c.Empty() || c.parent == nil {
		return false
	}
	p := c.parent
	for i := len(p.children) - 1; i >= 0; i-- {
		if p.children[i] == Node(c) {
			p.children = append(p.children[:i], p.children[i+1:]...)
			return true
		}
	}
	return false
}

// Start returns the first descendant token's Pos, or 0 for an empty context
// (which should never be attached to a tree; see Empty).
func (c *Context) Start() int {
	if len(c.children) == 0 {
		return 0
	}
	return c.children[0].Start()
}

// End returns the last descendant token's End, or 0 for an empty context.
func (c *Context) End() int {
	if len(c.children) == 0 {
		return 0
	}
	return c.children[len(c.children)-1].End()
}

// Root walks up to the outermost context.
func (c *Context) Root() *Context {
	cur := c
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// Equal reports whether c is an instance of lexicon.
func (c *Context) Equal(lexicon *Lexicon) bool { return c.Lexicon == lexicon }

// Tokens yields every Token descendant in document order, depth-first. It
// builds a fresh slice on every call; build's Rebuild calls it once per
// rebuild to flatten the old tree.
func (c *Context) Tokens() []*Token {
	var out []*Token
	var walk func(n Node)
	walk = func(n Node) {
		switch t := n.(type) {
		case *Token:
			out = append(out, t)
		case *Context:
			for _, ch := range t.children {
				walk(ch)
			}
		}
	}
	walk(c)
	return out
}

// Ancestry returns the chain of lexicons from the root down to and
// including c's own lexicon — the stack ancestry a rebuild compares when
// deciding whether a node may be reused.
func (c *Context) Ancestry() []*Lexicon {
	var chain []*Lexicon
	for cur := c; cur != nil; cur = cur.parent {
		chain = append([]*Lexicon{cur.Lexicon}, chain...)
	}
	return chain
}
