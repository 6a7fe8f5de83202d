package domain

import "strings"

// Modifiers is a bit set of declaration modifiers.
type Modifiers uint16

const (
	ModPublic Modifiers = 1 << iota
	ModProtected
	ModPrivate
	ModStatic
	ModFinal
	ModAbstract
	ModNative
	ModSynchronized
	ModTransient
	ModVolatile
	ModStrictfp
	ModDefault
)

var modifierNames = []struct {
	mod  Modifiers
	name string
}{
	{ModPublic, "public"},
	{ModProtected, "protected"},
	{ModPrivate, "private"},
	{ModAbstract, "abstract"},
	{ModDefault, "default"},
	{ModStatic, "static"},
	{ModFinal, "final"},
	{ModTransient, "transient"},
	{ModVolatile, "volatile"},
	{ModSynchronized, "synchronized"},
	{ModNative, "native"},
	{ModStrictfp, "strictfp"},
}

// ParseModifier maps a modifier keyword to its bit, or zero for unknown keywords.
func ParseModifier(keyword string) Modifiers {
	for _, m := range modifierNames {
		if m.name == keyword {
			return m.mod
		}
	}
	return 0
}

// Has reports whether all bits of m are set.
func (m Modifiers) Has(bits Modifiers) bool {
	return m&bits == bits
}

// String renders the modifiers in canonical source order.
func (m Modifiers) String() string {
	parts := make([]string, 0, 4)
	for _, n := range modifierNames {
		if m.Has(n.mod) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, " ")
}
