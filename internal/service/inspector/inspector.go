package inspector

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/alh2phoebus/internal/domain/alarm"
	"github.com/oshokin/alh2phoebus/internal/logger"
	"github.com/oshokin/alh2phoebus/internal/parser"
	"github.com/oshokin/alh2phoebus/internal/tree"
)

// yamlIndent is the indentation of the printed outline.
const yamlIndent = 2

// Node is one entity of the outline.
type Node struct {
	// Kind is group, channel or inclusion.
	Kind alarm.Kind `yaml:"kind"`
	// Name is the short entity name.
	Name string `yaml:"name"`
	// Path is the full hierarchical path.
	Path string `yaml:"path"`
	// Filename is the source file of a group or the target of an inclusion.
	Filename string `yaml:"filename,omitempty"`
	// Mask is the channel alarm mask.
	Mask string `yaml:"mask,omitempty"`
	// CountFilter is the channel count filter.
	CountFilter *alarm.CountFilter `yaml:"count_filter,omitempty"`
	// Attributes are the auxiliary settings of a group or channel.
	Attributes alarm.Attributes `yaml:"attributes,omitempty"`
	// Children are the nested entities in declaration order.
	Children []*Node `yaml:"children,omitempty"`
}

// Outline describes a whole file.
type Outline struct {
	// Config is the root name.
	Config string `yaml:"config"`
	// Source is the inspected file.
	Source string `yaml:"source"`
	// Groups counts groups, the root included.
	Groups int `yaml:"groups"`
	// Channels counts channel declarations.
	Channels int `yaml:"channels"`
	// Inclusions counts inclusion markers.
	Inclusions int `yaml:"inclusions"`
	// Diagnostics lists recoverable anomalies.
	Diagnostics []string `yaml:"diagnostics,omitempty"`
	// Root is the configuration root.
	Root *Node `yaml:"root"`
}

// Inspect parses the file at inputPath and builds its outline.
func Inspect(ctx context.Context, configName, inputPath string, opts ...parser.Option) (*Outline, error) {
	ctx = logger.WithName(ctx, "inspector")

	parsed, err := parser.ParseFile(ctx, configName, inputPath, opts...)
	if err != nil {
		return nil, err
	}

	t, err := tree.Build(parsed.Entities, parsed.Root)
	if err != nil {
		return nil, fmt.Errorf("build tree of %s: %w", inputPath, err)
	}

	outline := &Outline{
		Config: configName,
		Source: inputPath,
		Root:   newNode(t.Root),
	}

	t.Walk(func(n *tree.Node) bool {
		switch n.Entity.Kind {
		case alarm.KindGroup:
			outline.Groups++
		case alarm.KindChannel:
			outline.Channels++
		case alarm.KindInclusion:
			outline.Inclusions++
		}

		return true
	})

	for _, diagnostic := range parsed.Diagnostics {
		outline.Diagnostics = append(outline.Diagnostics, diagnostic.String())
	}

	logger.DebugKV(ctx, "Inspected configuration", "source", inputPath, "entities", t.Len())

	return outline, nil
}

// Write prints the outline as YAML.
func Write(w io.Writer, outline *Outline) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(yamlIndent)

	if err := enc.Encode(outline); err != nil {
		return fmt.Errorf("encode outline: %w", err)
	}

	return enc.Close()
}

// Run inspects the file at inputPath and prints its outline to w.
func Run(ctx context.Context, w io.Writer, configName, inputPath string, opts ...parser.Option) error {
	outline, err := Inspect(ctx, configName, inputPath, opts...)
	if err != nil {
		return err
	}

	return Write(w, outline)
}

// newNode converts a tree node and its subtree.
func newNode(n *tree.Node) *Node {
	node := &Node{
		Kind: n.Entity.Kind,
		Name: n.Entity.Name(),
		Path: n.Path,
	}

	switch n.Entity.Kind {
	case alarm.KindGroup:
		node.Filename = n.Entity.Group.Filename
		node.Attributes = n.Entity.Group.Attributes
	case alarm.KindChannel:
		node.Mask = n.Entity.Channel.Mask
		node.CountFilter = n.Entity.Channel.CountFilter
		node.Attributes = n.Entity.Channel.Attributes
	case alarm.KindInclusion:
		node.Filename = n.Entity.Inclusion.Filename
	}

	for _, child := range n.Children {
		node.Children = append(node.Children, newNode(child))
	}

	return node
}
