// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package puzzles

import (
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/ava-labs/chiasdk/clvm"
)

//go:embed reveals/*.hex
var revealFS embed.FS

// Mod is a puzzle template. Reveal is nil when only the tree hash of the
// template is known. A Mod returned by the registry is never modified.
type Mod struct {
	Name   string
	Hash   clvm.TreeHash
	Reveal []byte
}

// HasReveal reports whether the serialized template is available.
func (m *Mod) HasReveal() bool { return len(m.Reveal) > 0 }

type registry struct {
	lock   sync.RWMutex
	byName map[string]*Mod
	byHash map[clvm.TreeHash]*Mod
}

var mods = &registry{
	byName: make(map[string]*Mod),
	byHash: make(map[clvm.TreeHash]*Mod),
}

func init() {
	if _, err := loadFS(revealFS, "reveals"); err != nil {
		panic(err)
	}
	for name, hash := range hashOnlyMods {
		mods.add(&Mod{Name: name, Hash: hash})
	}
}

func (r *registry) add(m *Mod) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.byName[m.Name] = m
	r.byHash[m.Hash] = m
}

// withReveal swaps m for a copy carrying reveal. Callers hold r.lock.
func (r *registry) withReveal(m *Mod, reveal []byte) *Mod {
	upgraded := &Mod{Name: m.Name, Hash: m.Hash, Reveal: append([]byte(nil), reveal...)}
	if r.byName[m.Name] == m {
		r.byName[m.Name] = upgraded
	}
	if r.byHash[m.Hash] == m {
		r.byHash[m.Hash] = upgraded
	}
	return upgraded
}

// LoadDir registers every <name>.hex reveal found in dir. Files named after a
// template known only by hash must hash to it.
func LoadDir(dir string) (int, error) {
	return loadFS(os.DirFS(dir), ".")
}

func loadFS(fsys fs.FS, dir string) (int, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return 0, err
	}
	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".hex" {
			continue
		}
		raw, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return loaded, err
		}
		reveal, err := hex.DecodeString(strings.TrimSpace(string(raw)))
		if err != nil {
			return loaded, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		name := strings.TrimSuffix(entry.Name(), ".hex")
		if _, err := Register(name, reveal); err != nil {
			return loaded, fmt.Errorf("%s: %w", name, err)
		}
		loaded++
	}
	return loaded, nil
}

// Register adds a template to the registry. A template that is already known
// by name, with or without its reveal, must hash to the same value.
func Register(name string, reveal []byte) (*Mod, error) {
	hash, err := hashReveal(reveal)
	if err != nil {
		return nil, err
	}

	mods.lock.Lock()
	defer mods.lock.Unlock()

	if existing, ok := mods.byName[name]; ok {
		if existing.Hash != hash {
			return nil, fmt.Errorf("%w: %s is %s, reveal hashes to %s", ErrRevealMismatch, name, existing.Hash, hash)
		}
		if !existing.HasReveal() {
			existing = mods.withReveal(existing, reveal)
		}
		return existing, nil
	}

	m := &Mod{Name: name, Hash: hash, Reveal: append([]byte(nil), reveal...)}
	mods.byName[name] = m
	if known, ok := mods.byHash[hash]; !ok {
		mods.byHash[hash] = m
	} else if !known.HasReveal() {
		mods.withReveal(known, reveal)
	}
	return m, nil
}

// Attach supplies the reveal of a template known only by hash.
func Attach(reveal []byte) (*Mod, error) {
	hash, err := hashReveal(reveal)
	if err != nil {
		return nil, err
	}

	mods.lock.Lock()
	defer mods.lock.Unlock()

	m, ok := mods.byHash[hash]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMod, hash)
	}
	if !m.HasReveal() {
		m = mods.withReveal(m, reveal)
	}
	return m, nil
}

func hashReveal(reveal []byte) (clvm.TreeHash, error) {
	a := clvm.NewAllocator()
	n, err := a.Deserialize(reveal)
	if err != nil {
		return clvm.TreeHash{}, fmt.Errorf("invalid reveal: %w", err)
	}
	return a.TreeHash(n), nil
}

// Lookup returns a template by name.
func Lookup(name string) (*Mod, bool) {
	mods.lock.RLock()
	defer mods.lock.RUnlock()

	m, ok := mods.byName[name]
	return m, ok
}

// LookupHash returns a template by tree hash.
func LookupHash(hash clvm.TreeHash) (*Mod, bool) {
	mods.lock.RLock()
	defer mods.lock.RUnlock()

	m, ok := mods.byHash[hash]
	return m, ok
}

// Hash returns the tree hash of a named template.
func Hash(name string) (clvm.TreeHash, error) {
	m, ok := Lookup(name)
	if !ok {
		return clvm.TreeHash{}, fmt.Errorf("%w: %s", ErrUnknownMod, name)
	}
	return m.Hash, nil
}

// Names lists every registered template, sorted.
func Names() []string {
	mods.lock.RLock()
	defer mods.lock.RUnlock()

	names := make([]string, 0, len(mods.byName))
	for name := range mods.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
