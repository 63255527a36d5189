package phoebus

import (
	"bufio"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/alh2phoebus/internal/domain/alarm"
	"github.com/oshokin/alh2phoebus/internal/logger"
	"github.com/oshokin/alh2phoebus/internal/tree"
)

const (
	// DefaultIndent indents nested elements.
	DefaultIndent = "  "
	// DefaultFileMode is used for produced documents.
	DefaultFileMode os.FileMode = 0o644

	// disablingMaskFlags are the ALH mask flags (Cancel, Disable) that turn an alarm off.
	disablingMaskFlags = "CD"
)

var (
	// errRootNotGroup is returned when the tree root is not a group.
	errRootNotGroup = errors.New("tree root is not a group")
	// errUnknownKind is returned for an entity without a known kind.
	errUnknownKind = errors.New("unknown entity kind")
)

// Duplicate describes a channel declaration that was not emitted.
type Duplicate struct {
	// Name is the PV name.
	Name string
	// Path is the dropped declaration.
	Path string
	// KeptPath is the declaration that was emitted.
	KeptPath string
}

// Report summarizes a written document.
type Report struct {
	// Components is the number of <component> elements.
	Components int
	// PVs is the number of <pv> elements.
	PVs int
	// Inclusions is the number of <xi:include> elements.
	Inclusions int
	// DuplicatePVs lists dropped channel declarations in document order.
	DuplicatePVs []Duplicate
}

// Option configures the document writer.
type Option func(*writer)

// WithIndent sets the indentation of nested elements. An empty string disables indentation.
func WithIndent(indent string) Option {
	return func(w *writer) {
		w.indent = indent
	}
}

// WithHref maps an inclusion marker filename to the href written into the document.
func WithHref(fn func(filename string) string) Option {
	return func(w *writer) {
		w.href = fn
	}
}

// writer holds the state of one document.
type writer struct {
	// ctx carries the logger.
	ctx context.Context
	// enc writes XML tokens.
	enc *xml.Encoder
	// indent is passed to the encoder.
	indent string
	// href maps inclusion filenames, nil keeps them.
	href func(string) string
	// emitted maps a PV name to the path that was written for it.
	emitted map[string]string
	// report collects counters.
	report *Report
}

// Write encodes t as a Phoebus configuration document.
func Write(ctx context.Context, w io.Writer, t *tree.Tree, opts ...Option) (*Report, error) {
	if t.Root.Entity.Kind != alarm.KindGroup {
		return nil, errRootNotGroup
	}

	dw := &writer{
		ctx:     logger.WithName(ctx, "phoebus"),
		indent:  DefaultIndent,
		emitted: make(map[string]string),
		report:  new(Report),
	}

	for _, opt := range opts {
		opt(dw)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	dw.enc = xml.NewEncoder(w)
	dw.enc.Indent("", dw.indent)

	start := xml.StartElement{
		Name: xml.Name{Local: elementConfig},
		Attr: nameAttr(t.Root.Entity.Group.Name),
	}

	if err := dw.enc.EncodeToken(start); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}

	for _, child := range t.Root.Children {
		if err := dw.writeNode(child); err != nil {
			return nil, err
		}
	}

	if err := dw.enc.EncodeToken(start.End()); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}

	if err := dw.enc.Flush(); err != nil {
		return nil, fmt.Errorf("flush document: %w", err)
	}

	if _, err := io.WriteString(w, "\n"); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}

	return dw.report, nil
}

// WriteFile writes the document to path, replacing an existing file.
func WriteFile(ctx context.Context, path string, t *tree.Tree, opts ...Option) (*Report, error) {
	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, DefaultFileMode)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	buffered := bufio.NewWriter(f)

	report, err := Write(ctx, buffered, t, opts...)
	if err == nil {
		err = buffered.Flush()
	}

	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = closeErr
	}

	if err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}

	return report, nil
}

// writeNode dispatches on the entity kind.
func (w *writer) writeNode(n *tree.Node) error {
	switch n.Entity.Kind {
	case alarm.KindGroup:
		return w.writeComponent(n)
	case alarm.KindChannel:
		return w.writePV(n)
	case alarm.KindInclusion:
		return w.writeInclusion(n)
	default:
		return fmt.Errorf("%s: %w", n.Path, errUnknownKind)
	}
}

// writeComponent writes a group and its subtree.
func (w *writer) writeComponent(n *tree.Node) error {
	group := n.Entity.Group

	name := group.Name
	if group.Alias != "" {
		name = group.Alias
	}

	start := xml.StartElement{
		Name: xml.Name{Local: elementComponent},
		Attr: nameAttr(name),
	}

	if err := w.enc.EncodeToken(start); err != nil {
		return fmt.Errorf("encode component %s: %w", n.Path, err)
	}

	if err := w.writeGroupAttributes(&group.Attributes); err != nil {
		return fmt.Errorf("encode component %s: %w", n.Path, err)
	}

	for _, child := range n.Children {
		if err := w.writeNode(child); err != nil {
			return err
		}
	}

	if err := w.enc.EncodeToken(start.End()); err != nil {
		return fmt.Errorf("encode component %s: %w", n.Path, err)
	}

	w.report.Components++

	return nil
}

// writeGroupAttributes writes guidance, display and commands of a component.
func (w *writer) writeGroupAttributes(attrs *alarm.Attributes) error {
	if len(attrs.Guidance) > 0 {
		if err := w.text(elementGuidance, guidanceText(attrs)); err != nil {
			return err
		}
	}

	if attrs.GuidanceURL != "" {
		if err := w.text(elementDisplay, attrs.GuidanceURL); err != nil {
			return err
		}
	}

	for _, command := range attrs.Commands {
		if err := w.text(elementCommand, command); err != nil {
			return err
		}
	}

	return nil
}

// text writes a simple text element.
func (w *writer) text(name, value string) error {
	return w.enc.EncodeElement(value, xml.StartElement{Name: xml.Name{Local: name}})
}

// writePV writes a channel unless a channel with the same name was already written.
func (w *writer) writePV(n *tree.Node) error {
	channel := n.Entity.Channel

	if kept, ok := w.emitted[channel.Name]; ok {
		w.report.DuplicatePVs = append(w.report.DuplicatePVs, Duplicate{
			Name:     channel.Name,
			Path:     n.Path,
			KeptPath: kept,
		})

		logger.WarnKV(w.ctx, "Dropping duplicate PV", "pv", channel.Name, "path", n.Path, "kept", kept)

		return nil
	}

	w.emitted[channel.Name] = n.Path

	pv := pvElement{
		Name:        channel.Name,
		Enabled:     !strings.ContainsAny(channel.Mask, disablingMaskFlags),
		Latching:    false,
		Filter:      FilterExpression(effectiveForcePV(n)),
		Guidance:    guidanceText(&channel.Attributes),
		Display:     channel.GuidanceURL,
		Commands:    channel.Commands,
		Description: channel.Alias,
	}

	if channel.CountFilter != nil {
		pv.Count = channel.CountFilter.Count
		pv.Delay = channel.CountFilter.Delay
	}

	if err := w.enc.Encode(&pv); err != nil {
		return fmt.Errorf("encode pv %s: %w", n.Path, err)
	}

	w.report.PVs++

	return nil
}

// writeInclusion writes a cross-file reference.
func (w *writer) writeInclusion(n *tree.Node) error {
	href := n.Entity.Inclusion.Filename
	if w.href != nil {
		href = w.href(href)
	}

	include := includeElement{
		Href:      href,
		XPointer:  ConfigXPointer,
		Namespace: XIncludeNamespace,
	}

	if err := w.enc.Encode(&include); err != nil {
		return fmt.Errorf("encode inclusion %s: %w", n.Path, err)
	}

	w.report.Inclusions++

	return nil
}

// effectiveForcePV returns the channel's force PV or, failing that, the
// nearest enclosing group's.
func effectiveForcePV(n *tree.Node) *alarm.ForcePV {
	if forcePV := n.Entity.Channel.ForcePV; forcePV != nil {
		return forcePV
	}

	for p := n.Parent; p != nil; p = p.Parent {
		if p.Entity.Kind == alarm.KindGroup && p.Entity.Group.ForcePV != nil {
			return p.Entity.Group.ForcePV
		}
	}

	return nil
}

// guidanceText joins guidance lines into one paragraph separated by spaces.
func guidanceText(attrs *alarm.Attributes) string {
	return strings.Join(attrs.Guidance, " ")
}
