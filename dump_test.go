package parce

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDumpToken(t *testing.T) {
	tok := &Token{Text: "hi", Pos: 3, Action: "Word"}
	d := Dump(tok)
	require.Equal(t, "", d.Lexicon)
	require.Equal(t, "Word", d.Action)
	require.Equal(t, "hi", d.Text)
	require.Equal(t, 3, d.Pos)
	require.Equal(t, 5, d.End)
	require.Nil(t, d.Children)
}

func TestDumpContextNestsChildren(t *testing.T) {
	root := NewContext(newTestLexicon("root"), nil)
	root.Append(&Token{Text: "a", Pos: 0})
	child := NewContext(newTestLexicon("child"), nil)
	child.Append(&Token{Text: "b", Pos: 1})
	root.Append(child)

	d := Dump(root)
	require.Equal(t, "test.root", d.Lexicon)
	require.Len(t, d.Children, 2)
	require.Equal(t, "a", d.Children[0].Text)
	require.Equal(t, "test.child", d.Children[1].Lexicon)
	require.Len(t, d.Children[1].Children, 1)
	require.Equal(t, "b", d.Children[1].Children[0].Text)
}
