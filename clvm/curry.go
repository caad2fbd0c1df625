// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package clvm

// Operator atoms used by curried programs.
const (
	opQuote = 1
	opApply = 2
	opCons  = 4
)

var (
	applyHash = HashAtom([]byte{opApply})
	consHash  = HashAtom([]byte{opCons})
)

// Curry binds args to mod, producing (a (q . mod) (c (q . arg1) ... 1)).
func (a *Allocator) Curry(mod NodePtr, args ...NodePtr) NodePtr {
	env := One
	for i := len(args) - 1; i >= 0; i-- {
		env = a.List(a.NewAtom([]byte{opCons}), a.Quote(args[i]), env)
	}
	return a.List(a.NewAtom([]byte{opApply}), a.Quote(mod), env)
}

// Uncurry splits a curried program into its mod and arguments.
func (a *Allocator) Uncurry(program NodePtr) (NodePtr, []NodePtr, error) {
	items, err := a.ListItems(program)
	if err != nil || len(items) != 3 || !a.isOp(items[0], opApply) {
		return Nil, nil, ErrNotCurried
	}
	mod, ok := a.unquote(items[1])
	if !ok {
		return Nil, nil, ErrNotCurried
	}

	var args []NodePtr
	env := items[2]
	for {
		if env == One || (a.IsAtom(env) && string(a.Atom(env)) == "\x01") {
			return mod, args, nil
		}
		parts, err := a.ListItems(env)
		if err != nil || len(parts) != 3 || !a.isOp(parts[0], opCons) {
			return Nil, nil, ErrNotCurried
		}
		arg, ok := a.unquote(parts[1])
		if !ok {
			return Nil, nil, ErrNotCurried
		}
		args = append(args, arg)
		env = parts[2]
	}
}

func (a *Allocator) isOp(n NodePtr, op byte) bool {
	b := a.Atom(n)
	return a.IsAtom(n) && len(b) == 1 && b[0] == op
}

func (a *Allocator) unquote(n NodePtr) (NodePtr, bool) {
	first, rest, ok := a.Pair(n)
	if !ok || !a.isOp(first, opQuote) {
		return Nil, false
	}
	return rest, true
}

// CurryTreeHash computes the tree hash of a curried program from the hash of
// the mod and the hashes of its arguments.
func CurryTreeHash(modHash TreeHash, argHashes ...TreeHash) TreeHash {
	quotedMod := HashPair(oneHash, modHash)
	env := oneHash
	for i := len(argHashes) - 1; i >= 0; i-- {
		quotedArg := HashPair(oneHash, argHashes[i])
		env = HashPair(consHash, HashPair(quotedArg, HashPair(env, nilHash)))
	}
	return HashPair(applyHash, HashPair(quotedMod, HashPair(env, nilHash)))
}
