// Package jsni extracts Java member references from JSNI snippets.
package jsni

import (
	"regexp"
	"strings"

	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
)

// refPattern matches "@a.b.Outer$Inner::member". The member may be followed by a
// parameter signature, which is not needed to find the declaring unit.
var refPattern = regexp.MustCompile(`@([A-Za-z_$][\w$]*(?:\.[A-Za-z_$][\w$]*)*)(?:\[\])*::([A-Za-z_$][\w$]*)`)

// nullClass is the JSNI pseudo-class whose members are not Java references.
const nullClass = "null"

// Scanner implements ports.ReferenceScanner.
type Scanner struct{}

var _ ports.ReferenceScanner = (*Scanner)(nil)

// NewScanner creates a scanner.
func NewScanner() *Scanner {
	return &Scanner{}
}

// ExtractReferences returns the distinct references of every snippet of unit, in
// order of first appearance.
func (s *Scanner) ExtractReferences(unit *domain.ResolvedUnit) []domain.ForeignRef {
	var (
		refs []domain.ForeignRef
		seen = make(map[[2]string]struct{})
	)
	for _, sn := range unit.Snippets {
		for _, m := range refPattern.FindAllStringSubmatchIndex(sn.Body, -1) {
			class, member := sn.Body[m[2]:m[3]], sn.Body[m[4]:m[5]]
			if class == nullClass {
				continue
			}
			key := [2]string{class, member}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			refs = append(refs, domain.ForeignRef{
				Class:  class,
				Member: member,
				Pos:    offset(sn.Pos, sn.Body[:m[0]]),
			})
		}
	}
	return refs
}

// offset advances start across the text that precedes a match.
func offset(start domain.Position, before string) domain.Position {
	if !start.IsValid() {
		return start
	}
	lines := strings.Count(before, "\n")
	if lines == 0 {
		return domain.Position{Line: start.Line, Column: start.Column + len(before)}
	}
	return domain.Position{
		Line:   start.Line + lines,
		Column: len(before) - strings.LastIndexByte(before, '\n'),
	}
}
