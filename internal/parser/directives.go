package parser

import (
	"strings"

	"github.com/oshokin/alh2phoebus/internal/domain/alarm"
	"github.com/oshokin/alh2phoebus/internal/logger"
)

// processGroup handles "GROUP <parent|NULL> <name>".
func (p *Parser) processGroup(l line) error {
	if err := requireFields(l, 3, "GROUP <parent|NULL> <name>"); err != nil {
		return err
	}

	parent, err := p.resolveParent(l, l.fields[1])
	if err != nil {
		return err
	}

	var (
		s    = p.state
		name = l.fields[2]
		path = alarm.JoinPath(parent, name)
	)

	switch entity, ok := s.result.Entities[path]; {
	case !ok:
		s.result.Entities[path] = alarm.GroupEntity(alarm.NewGroup(name, p.filename))
	case entity.Kind != alarm.KindGroup:
		return malformed(l, path+" is already declared as a "+entity.Kind.String())
	}

	p.addChild(l, parent, path)

	s.currentTarget = path
	s.currentGroup = path
	s.groupsByName[name] = path

	return nil
}

// processChannel handles "CHANNEL <parent> <name> [<mask>]".
func (p *Parser) processChannel(l line) error {
	if err := requireFields(l, 3, "CHANNEL <parent> <name> [<mask>]"); err != nil {
		return err
	}

	parent, err := p.resolveParent(l, l.fields[1])
	if err != nil {
		return err
	}

	var (
		s    = p.state
		path = alarm.JoinPath(parent, l.fields[2])
	)

	entity, ok := s.result.Entities[path]

	switch {
	case !ok:
		entity = alarm.ChannelEntity(alarm.NewChannel(l.fields[2]))
		s.result.Entities[path] = entity
	case entity.Kind != alarm.KindChannel:
		return malformed(l, path+" is already declared as a "+entity.Kind.String())
	}

	p.addChild(l, parent, path)

	if len(l.fields) >= 4 {
		entity.Channel.Mask = l.fields[3]
	}

	s.currentTarget = path

	return nil
}

// processCommand handles "$COMMAND <command>[!<command>...]".
func (p *Parser) processCommand(l line) error {
	if err := requireFields(l, 2, "$COMMAND <text>"); err != nil {
		return err
	}

	attrs := p.target().Attributes()

	for _, command := range strings.Split(l.rest(1), commandSeparator) {
		if command = strings.TrimSpace(command); command != "" {
			attrs.Commands = append(attrs.Commands, command)
		}
	}

	return nil
}

// processSevrPV handles "$SEVRPV <name>".
func (p *Parser) processSevrPV(l line) error {
	if err := requireFields(l, 2, "$SEVRPV <name>"); err != nil {
		return err
	}

	p.target().Attributes().SevrPV = &alarm.SevrPV{Name: l.fields[1]}

	return nil
}

// processForcePV handles "$FORCEPV <PV|CALC> <mask> [<value>] [<reset>]" and,
// for CALC, the FORCEPV_CALC lines that follow it.
func (p *Parser) processForcePV(l line) error {
	if err := requireFields(l, 3, "$FORCEPV <PV|CALC> <mask> [<value>] [<reset>]"); err != nil {
		return err
	}

	forcePV := &alarm.ForcePV{Mask: l.fields[2]}

	if len(l.fields) >= 4 {
		forcePV.Value = l.fields[3]
	}

	if len(l.fields) >= 5 {
		forcePV.ResetValue = l.fields[4]
	}

	p.target().Attributes().ForcePV = forcePV

	if l.fields[1] != calcPlaceholder {
		forcePV.Name = l.fields[1]

		return nil
	}

	forcePV.IsCalc = true

	return p.readCalcExpressions(forcePV)
}

// readCalcExpressions consumes FORCEPV_CALC lines. The first other line is
// pushed back for regular dispatch.
func (p *Parser) readCalcExpressions(forcePV *alarm.ForcePV) error {
	argumentPrefix := keywordForceCalc + "_"

	for {
		l, ok, err := p.state.cursor.next()
		if err != nil {
			return err
		}

		if !ok {
			return nil
		}

		keyword := l.keyword()

		switch {
		case keyword == keywordForceCalc:
			if err = requireFields(l, 2, "FORCEPV_CALC <expression>"); err != nil {
				return err
			}

			forcePV.Expression = l.rest(1)
		case strings.HasPrefix(keyword, argumentPrefix):
			letter := strings.TrimPrefix(keyword, argumentPrefix)
			if letter == "" {
				return malformed(l, "expected FORCEPV_CALC_<letter> <expression>")
			}

			if err = requireFields(l, 2, "FORCEPV_CALC_<letter> <expression>"); err != nil {
				return err
			}

			forcePV.AddArgument(letter, l.rest(1))
		default:
			p.state.cursor.unread(l)

			return nil
		}
	}
}

// processGuidance handles "$GUIDANCE <url>" and multi-line guidance blocks
// terminated by $END.
func (p *Parser) processGuidance(l line) error {
	attrs := p.target().Attributes()

	if len(l.fields) >= 2 {
		attrs.GuidanceURL = l.fields[1]

		return nil
	}

	for {
		next, ok, err := p.state.cursor.next()
		if err != nil {
			return err
		}

		if !ok {
			return malformed(l, "guidance block is not terminated by "+keywordEnd)
		}

		if strings.HasPrefix(next.keyword(), keywordEnd) {
			return nil
		}

		attrs.Guidance = append(attrs.Guidance, strings.TrimSpace(next.text))
	}
}

// processAlias handles "$ALIAS <text>".
func (p *Parser) processAlias(l line) error {
	if err := requireFields(l, 2, "$ALIAS <name>"); err != nil {
		return err
	}

	p.target().Attributes().Alias = l.rest(1)

	return nil
}

// processAckPV handles "$ACKPV <name> <value>".
func (p *Parser) processAckPV(l line) error {
	if err := requireFields(l, 3, "$ACKPV <name> <value>"); err != nil {
		return err
	}

	p.target().Attributes().AckPV = &alarm.AckPV{
		Name:  l.fields[1],
		Value: l.fields[2],
	}

	return nil
}

// processHeartbeatPV handles "$HEARTBEATPV <name> [<value>] [<seconds>]".
func (p *Parser) processHeartbeatPV(l line) error {
	if err := requireFields(l, 2, "$HEARTBEATPV <name> [<value>] [<seconds>]"); err != nil {
		return err
	}

	heartbeat := &alarm.HeartbeatPV{Name: l.fields[1]}

	if len(l.fields) >= 3 {
		heartbeat.Value = l.fields[2]
	}

	if len(l.fields) >= 4 {
		heartbeat.Seconds = l.fields[3]
	}

	p.target().Attributes().HeartbeatPV = heartbeat

	return nil
}

// processInclusion handles "INCLUDE <parent> <path>". The placeholder goes
// under the current target, or under the stated parent when the target is a channel.
func (p *Parser) processInclusion(l line) error {
	if err := requireFields(l, 3, "INCLUDE <parent> <path>"); err != nil {
		return err
	}

	s := p.state
	parent := s.currentTarget

	if p.target().Kind != alarm.KindGroup {
		var err error

		if parent, err = p.resolveParent(l, l.fields[1]); err != nil {
			return err
		}
	}

	var (
		path     = p.inclusionPath(parent)
		filename = p.resolveInclude(l.fields[2])
	)

	s.result.Entities[path] = alarm.InclusionEntity(&alarm.InclusionMarker{
		Name:     alarm.BaseName(path),
		Filename: filename,
	})
	s.result.Inclusions[path] = filename
	p.addChild(l, parent, path)

	logger.DebugKV(s.ctx, "Recorded inclusion", "placeholder", path, "filename", filename)

	return nil
}

// processCountFilter handles "$ALARMCOUNTFILTER <count> <delay>".
func (p *Parser) processCountFilter(l line) error {
	if err := requireFields(l, 3, "$ALARMCOUNTFILTER <count> <delay>"); err != nil {
		return err
	}

	target := p.target()
	if target.Kind != alarm.KindChannel {
		p.diagnose(l, ErrGroupCountFilter)

		return nil
	}

	target.Channel.CountFilter = &alarm.CountFilter{
		Count: l.fields[1],
		Delay: l.fields[2],
	}

	return nil
}
