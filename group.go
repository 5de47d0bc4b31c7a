package parce

// Group tokens: when one regex match fires a ByGroup action, the
// resulting tokens are emitted as ordinary Tokens in the same Context,
// each carrying a small group index; the last carries the negative of
// its index rather than a separate end marker, so there is no
// group-to-group back-reference and no cycle to worry about.

// InGroup reports whether t is a member of a group (as opposed to an
// ordinary single-match token, whose Group is 0).
func (t *Token) InGroup() bool { return t.Group != 0 }

// GroupIndex returns the token's 1-based position within its group,
// regardless of whether it is the last member.
func (t *Token) GroupIndex() int {
	if t.Group < 0 {
		return -t.Group
	}
	return t.Group
}

// GroupEnd reports whether t is the last member of its group; exactly one
// member of a group carries a negative index.
func (t *Token) GroupEnd() bool { return t.Group < 0 }

// IsByGroup reports whether a fired action is a ByGroup action, so the
// lexer knows to fan it out into several tokens instead of emitting one.
func IsByGroup(action interface{}) bool {
	_, ok := action.(byGroupAction)
	return ok
}

// EmitGroupTokens builds one Token per non-empty numbered group from a
// ByGroup action, in group order, indexing them 1..n with the final one
// negated. groups holds each capture group's text
// (groups[0] is the whole match and is never itself emitted); starts holds
// the matching absolute start offset for each entry in groups, or -1 for a
// group that did not participate. arg is the enclosing lexicon's Arg, for
// any Arg() reference inside a per-group action item.
func EmitGroupTokens(action interface{}, groups []string, starts []int, arg interface{}) ([]*Token, error) {
	ba, ok := action.(byGroupAction)
	if !ok {
		return nil, grammarErrorID("", -1, "grammar.bad_group_action", "EmitGroupTokens: not a ByGroup action")
	}
	n := len(ba.perGroup)
	if n > len(groups)-1 {
		n = len(groups) - 1
	}
	var out []*Token
	idx := 0
	for g := 1; g <= n; g++ {
		text := groups[g]
		if text == "" || starts[g] < 0 {
			continue
		}
		idx++
		ctx := &evalContext{phase: phaseMatch, text: text, match: groups, arg: arg}
		act, err := ba.perGroup[g-1].eval(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, &Token{Text: text, Pos: starts[g], Action: act, Group: idx})
	}
	if len(out) > 0 {
		out[len(out)-1].Group = -out[len(out)-1].Group
	}
	return out, nil
}
