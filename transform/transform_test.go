package transform

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opencodelex/parce"
)

func lex(name string) *parce.Lexicon {
	lang := parce.NewLanguage("test")
	return lang.Define(name, func() parce.LexiconDef { return parce.LexiconDef{} })
}

func TestTransformAppliesBottomUp(t *testing.T) {
	root := parce.NewContext(lex("A"), nil)
	root.Append(&parce.Token{Text: "a"})
	child := parce.NewContext(lex("B"), nil)
	child.Append(&parce.Token{Text: "bb"})
	root.Append(child)

	tf := New()
	tf.Set("B", func(node *parce.Context, children []interface{}) interface{} {
		total := 0
		for _, c := range children {
			total += len(c.(*parce.Token).Text)
		}
		return total
	})
	tf.Set("A", func(node *parce.Context, children []interface{}) interface{} {
		total := 0
		for _, c := range children {
			switch v := c.(type) {
			case *parce.Token:
				total += len(v.Text)
			case int:
				total += v
			}
		}
		return total
	})

	result := tf.Transform(root)
	require.Equal(t, 3, result) // len("a") + (len("bb") via B's transform)
}

func TestTransformPassesThroughWithoutRegisteredFunc(t *testing.T) {
	root := parce.NewContext(lex("Untouched"), nil)
	root.Append(&parce.Token{Text: "x"})

	tf := New()
	result := tf.Transform(root)
	require.Same(t, root, result)
}

func TestTransformCachesByContextIdentity(t *testing.T) {
	root := parce.NewContext(lex("Counted"), nil)
	root.Append(&parce.Token{Text: "x"})

	calls := 0
	tf := New()
	tf.Set("Counted", func(node *parce.Context, children []interface{}) interface{} {
		calls++
		return calls
	})

	first := tf.Transform(root)
	second := tf.Transform(root)
	require.Equal(t, first, second)
	require.Equal(t, 1, calls)
}

func TestInvalidateEvictsNodeAndAncestors(t *testing.T) {
	root := parce.NewContext(lex("Root"), nil)
	mid := parce.NewContext(lex("Mid"), nil)
	leaf := parce.NewContext(lex("Leaf"), nil)
	leaf.Append(&parce.Token{Text: "x"})
	mid.Append(leaf)
	root.Append(mid)

	var rootCalls, midCalls, leafCalls int
	tf := New()
	tf.Set("Root", func(node *parce.Context, children []interface{}) interface{} { rootCalls++; return nil })
	tf.Set("Mid", func(node *parce.Context, children []interface{}) interface{} { midCalls++; return nil })
	tf.Set("Leaf", func(node *parce.Context, children []interface{}) interface{} { leafCalls++; return nil })

	tf.Transform(root)
	require.Equal(t, 1, rootCalls)
	require.Equal(t, 1, midCalls)
	require.Equal(t, 1, leafCalls)

	tf.Invalidate(leaf)
	tf.Transform(root)
	// leaf, mid and root all sit on leaf's ancestor chain, so all three
	// were evicted and recomputed; nothing recomputes twice beyond that.
	require.Equal(t, 2, rootCalls)
	require.Equal(t, 2, midCalls)
	require.Equal(t, 2, leafCalls)
}

func TestRecomputeFillsOnlyMissingEntries(t *testing.T) {
	root := parce.NewContext(lex("Root"), nil)
	mid := parce.NewContext(lex("Mid"), nil)
	mid.Append(&parce.Token{Text: "x"})
	root.Append(mid)

	var rootCalls, midCalls int
	tf := New()
	tf.Set("Root", func(node *parce.Context, children []interface{}) interface{} { rootCalls++; return nil })
	tf.Set("Mid", func(node *parce.Context, children []interface{}) interface{} { midCalls++; return nil })

	tf.Transform(root)
	require.Equal(t, 1, rootCalls)
	require.Equal(t, 1, midCalls)

	tf.Invalidate(root) // only the root entry itself (no parent) is evicted
	tf.Recompute(root)
	require.Equal(t, 2, rootCalls)
	require.Equal(t, 1, midCalls) // mid's cache entry survived, never recomputed
}
