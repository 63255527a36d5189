package parser

import (
	"errors"
	"path/filepath"
	"strconv"

	"github.com/oshokin/alh2phoebus/internal/domain/alarm"
)

// resolveParent returns the path of the group a directive names as its parent.
// The rule, in order:
//  1. NULL is the current node;
//  2. the short name of the current group is the current group;
//  3. a group of that name nested directly in the current group;
//  4. the most recently declared group with that short name;
//  5. otherwise a group is synthesized under the current node.
func (p *Parser) resolveParent(l line, name string) (string, error) {
	s := p.state

	if name == noParent {
		return s.currentNode, nil
	}

	if s.currentGroup != "" {
		if alarm.BaseName(s.currentGroup) == name {
			return s.currentGroup, nil
		}

		nested := alarm.JoinPath(s.currentGroup, name)
		if p.isGroup(nested) {
			return nested, nil
		}
	}

	if path, ok := s.groupsByName[name]; ok {
		return path, nil
	}

	path := alarm.JoinPath(s.currentNode, name)

	switch entity, ok := s.result.Entities[path]; {
	case !ok:
		s.result.Entities[path] = alarm.GroupEntity(alarm.NewGroup(name, p.filename))
		p.addChild(l, s.currentNode, path)
	case entity.Kind != alarm.KindGroup:
		return "", malformed(l, "parent "+name+" is a "+entity.Kind.String()+", not a group")
	}

	s.groupsByName[name] = path

	return path, nil
}

// isGroup reports whether path holds a group.
func (p *Parser) isGroup(path string) bool {
	entity, ok := p.state.result.Entities[path]

	return ok && entity.Kind == alarm.KindGroup
}

// addChild registers child under the group at parent and reports duplicates as diagnostics.
func (p *Parser) addChild(l line, parent, child string) {
	err := p.state.result.Entities[parent].Group.AddChild(child)
	if errors.Is(err, alarm.ErrDuplicateChild) {
		p.diagnose(l, err)
	}
}

// target returns the entity attribute directives currently apply to.
func (p *Parser) target() *alarm.Entity {
	return p.state.result.Entities[p.state.currentTarget]
}

// inclusionPath synthesizes the next unique placeholder path under parent.
func (p *Parser) inclusionPath(parent string) string {
	path := alarm.JoinPath(parent, inclusionPrefix+strconv.Itoa(p.state.inclusions))
	p.state.inclusions++

	return path
}

// resolveInclude maps an INCLUDE filename onto the base directory.
func (p *Parser) resolveInclude(name string) string {
	if filepath.IsAbs(name) || p.baseDir == "" {
		return filepath.Clean(name)
	}

	return filepath.Join(p.baseDir, name)
}
