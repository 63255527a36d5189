package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/alh2phoebus/internal/domain/alarm"
	"github.com/oshokin/alh2phoebus/internal/logger"
)

// Directive keywords.
const (
	keywordGroup       = "GROUP"
	keywordChannel     = "CHANNEL"
	keywordCommand     = "$COMMAND"
	keywordSevrPV      = "$SEVRPV"
	keywordForcePV     = "$FORCEPV"
	keywordGuidance    = "$GUIDANCE"
	keywordAlias       = "$ALIAS"
	keywordAckPV       = "$ACKPV"
	keywordHeartbeatPV = "$HEARTBEATPV"
	keywordInclude     = "INCLUDE"
	keywordCountFilter = "$ALARMCOUNTFILTER"

	// keywordForceCalc starts the primary expression of a calculated force PV;
	// keywordForceCalc + "_<letter>" names a sub-expression.
	keywordForceCalc = "FORCEPV_CALC"
	// keywordEnd terminates a guidance block.
	keywordEnd = "$END"

	// noParent stands for "attach under the current node".
	noParent = "NULL"
	// commentPrefix starts a comment token.
	commentPrefix = "#"
	// commandSeparator separates several commands on one $COMMAND line.
	commandSeparator = "!"
	// inclusionPrefix names synthesized inclusion placeholders.
	inclusionPrefix = "INCLUDE_"
	// calcPlaceholder is the force PV name that introduces a calculation.
	calcPlaceholder = "CALC"
)

// Result is the outcome of parsing one file.
type Result struct {
	// Root is the path of the configuration root group.
	Root string
	// Entities maps every declared path to its entity.
	Entities map[string]*alarm.Entity
	// Inclusions maps inclusion placeholder paths to referenced filenames.
	Inclusions map[string]string
	// Diagnostics lists recoverable anomalies in source order.
	Diagnostics []Diagnostic
}

// Option configures a Parser.
type Option func(*Parser)

// WithBaseDir sets the directory relative INCLUDE paths are resolved against.
func WithBaseDir(dir string) Option {
	return func(p *Parser) {
		p.baseDir = dir
	}
}

// WithFilename records the source filename on every group the parser creates.
func WithFilename(name string) Option {
	return func(p *Parser) {
		p.filename = name
	}
}

// Parser converts one ALH source into entities. A Parser holds the positional
// state of a single file and must not be reused for another one.
type Parser struct {
	// configName names the root group.
	configName string
	// baseDir resolves relative INCLUDE paths.
	baseDir string
	// filename is stamped on created groups.
	filename string
	// state is the positional context of the file being parsed.
	state *state
}

// state is the context carried across directives.
type state struct {
	// ctx carries the logger for diagnostics.
	ctx context.Context
	// cursor yields source lines.
	cursor *cursor
	// result accumulates entities.
	result *Result
	// currentNode is the path new top-level groups attach to.
	currentNode string
	// currentTarget is the path attribute directives apply to.
	currentTarget string
	// currentGroup is the path of the most recently declared group, empty before the first one.
	currentGroup string
	// groupsByName maps a short group name to its most recently declared path.
	groupsByName map[string]string
	// inclusions counts synthesized inclusion placeholders.
	inclusions int
}

// New creates a parser whose hierarchy is rooted at configName.
func New(configName string, opts ...Option) *Parser {
	p := &Parser{configName: configName}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// errParserUsed is returned when Parse is called twice on one Parser.
var errParserUsed = errors.New("parser already used")

// errEmptyConfigName is returned when the root group has no name.
var errEmptyConfigName = errors.New("config name must not be empty")

// Parse reads the whole source and returns the collected entities.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (*Result, error) {
	if p.state != nil {
		return nil, errParserUsed
	}

	root := alarm.JoinPath(p.configName)
	if root == "" {
		return nil, errEmptyConfigName
	}

	p.state = &state{
		ctx:    logger.WithName(ctx, "parser"),
		cursor: newCursor(r),
		result: &Result{
			Root: root,
			Entities: map[string]*alarm.Entity{
				root: alarm.GroupEntity(alarm.NewGroup(p.configName, p.filename)),
			},
			Inclusions: make(map[string]string),
		},
		currentNode:   root,
		currentTarget: root,
		groupsByName:  make(map[string]string),
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		l, ok, err := p.state.cursor.next()
		if err != nil {
			return nil, err
		}

		if !ok {
			break
		}

		if err = p.dispatch(l); err != nil {
			return nil, err
		}
	}

	logger.DebugKV(p.state.ctx, "Parsed configuration",
		"root", root,
		"entities", len(p.state.result.Entities),
		"inclusions", len(p.state.result.Inclusions),
		"diagnostics", len(p.state.result.Diagnostics))

	return p.state.result, nil
}

// ParseFile parses the file at path. Unless overridden by opts, relative
// inclusions are resolved against the file's directory and groups are
// stamped with its base name.
func ParseFile(ctx context.Context, configName, path string, opts ...Option) (*Result, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	defer func() {
		_ = f.Close()
	}()

	defaults := []Option{
		WithBaseDir(filepath.Dir(path)),
		WithFilename(filepath.Base(path)),
	}

	result, err := New(configName, append(defaults, opts...)...).Parse(logger.WithKV(ctx, "file", path), f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return result, nil
}

// dispatch applies one top-level line.
//
//nolint:cyclop // A flat keyword switch reads better than a lookup table here.
func (p *Parser) dispatch(l line) error {
	keyword := l.keyword()

	switch {
	case keyword == "":
		return nil
	case keyword == keywordGroup:
		return p.processGroup(l)
	case keyword == keywordChannel:
		return p.processChannel(l)
	case keyword == keywordCommand:
		return p.processCommand(l)
	case keyword == keywordSevrPV:
		return p.processSevrPV(l)
	case keyword == keywordForcePV:
		return p.processForcePV(l)
	case keyword == keywordGuidance:
		return p.processGuidance(l)
	case keyword == keywordAlias:
		return p.processAlias(l)
	case keyword == keywordAckPV:
		return p.processAckPV(l)
	case keyword == keywordHeartbeatPV:
		return p.processHeartbeatPV(l)
	case keyword == keywordInclude:
		return p.processInclusion(l)
	case keyword == keywordCountFilter:
		return p.processCountFilter(l)
	case strings.HasPrefix(keyword, commentPrefix):
		return nil
	default:
		p.diagnose(l, ErrUnknownDirective)

		return nil
	}
}

// diagnose records and logs a recoverable anomaly.
func (p *Parser) diagnose(l line, err error) {
	p.state.result.Diagnostics = append(p.state.result.Diagnostics, Diagnostic{
		Line: l.number,
		Text: l.text,
		Err:  err,
	})

	logger.WarnKV(p.state.ctx, "Skipping anomaly", "line", l.number, "reason", err.Error(), "text", l.text)
}

// malformed builds the fatal error for l.
func malformed(l line, reason string) error {
	return &DirectiveError{
		Line:    l.number,
		Text:    l.text,
		Keyword: l.keyword(),
		Reason:  reason,
	}
}

// requireFields fails when l has fewer than n tokens.
func requireFields(l line, n int, usage string) error {
	if len(l.fields) < n {
		return malformed(l, "expected "+usage)
	}

	return nil
}
