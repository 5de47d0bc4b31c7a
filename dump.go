package parce

// DumpNode is a repr/debug-friendly view of a Context or Token tree, with
// every field exported so github.com/alecthomas/repr's reflection-based
// printer (which only walks exported fields) can render it — Context and
// Token themselves keep their children/parent fields unexported to protect
// the tree's invariants, so they are dumped through this projection
// rather than printed directly.
type DumpNode struct {
	Lexicon  string
	Action   interface{}
	Text     string
	Pos, End int
	Group    int
	Children []*DumpNode
}

// Dump builds a DumpNode tree rooted at n.
func Dump(n Node) *DumpNode {
	switch t := n.(type) {
	case *Token:
		return &DumpNode{Action: t.Action, Text: t.Text, Pos: t.Pos, End: t.End(), Group: t.Group}
	case *Context:
		d := &DumpNode{Lexicon: t.Lexicon.String(), Pos: t.Start(), End: t.End()}
		for _, c := range t.Children() {
			d.Children = append(d.Children, Dump(c))
		}
		return d
	default:
		return nil
	}
}
