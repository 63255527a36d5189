package alarm

import (
	"errors"
	"slices"
)

// ErrDuplicateChild is returned by Group.AddChild when the child path is already registered.
var ErrDuplicateChild = errors.New("duplicate child")

// Kind tags the variant held by an Entity.
type Kind int

const (
	// KindGroup marks an internal node of the hierarchy.
	KindGroup Kind = iota + 1
	// KindChannel marks a monitored PV.
	KindChannel
	// KindInclusion marks a placeholder for another source file.
	KindInclusion
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindChannel:
		return "channel"
	case KindInclusion:
		return "inclusion"
	default:
		return "unknown"
	}
}

// MarshalYAML renders the kind by name.
func (k Kind) MarshalYAML() (any, error) {
	return k.String(), nil
}

// SevrPV references a PV that reports the severity of a node.
type SevrPV struct {
	// Name is the severity PV name.
	Name string `yaml:"name"`
}

// AckPV is the acknowledgement PV of a node. It is recorded but never emitted.
type AckPV struct {
	// Name is the acknowledgement PV name.
	Name string `yaml:"name"`
	// Value is written to the PV on acknowledgement.
	Value string `yaml:"value"`
}

// HeartbeatPV is the heartbeat PV of a node. It is recorded but never emitted.
type HeartbeatPV struct {
	// Name is the heartbeat PV name.
	Name string `yaml:"name"`
	// Value is the value written on each beat.
	Value string `yaml:"value,omitempty"`
	// Seconds is the beat period.
	Seconds string `yaml:"seconds,omitempty"`
}

// ForcePV describes how a node's alarm may be forced.
// Either Name is set, or IsCalc is true and the expression fields are used.
type ForcePV struct {
	// Mask is the force mask applied while the force condition holds.
	Mask string `yaml:"mask"`
	// Value is the force value, empty when absent.
	Value string `yaml:"value,omitempty"`
	// ResetValue is the reset value, empty when absent.
	ResetValue string `yaml:"reset_value,omitempty"`
	// Name is the force PV name for plain force PVs.
	Name string `yaml:"name,omitempty"`
	// IsCalc is set for calculated force PVs.
	IsCalc bool `yaml:"is_calc,omitempty"`
	// Expression is the primary calculation with single-letter placeholders.
	Expression string `yaml:"expression,omitempty"`
	// Arguments maps a placeholder letter to its sub-expression.
	Arguments map[string]string `yaml:"arguments,omitempty"`
}

// AddArgument records the sub-expression for a placeholder letter.
func (f *ForcePV) AddArgument(letter, expression string) {
	if f.Arguments == nil {
		f.Arguments = make(map[string]string)
	}

	f.Arguments[letter] = expression
}

// Attributes holds the auxiliary settings shared by groups and channels.
type Attributes struct {
	// Alias is the display name overriding the entity name.
	Alias string `yaml:"alias,omitempty"`
	// Commands are free-text operator commands.
	Commands []string `yaml:"commands,omitempty"`
	// SevrPV is the severity PV reference.
	SevrPV *SevrPV `yaml:"sevr_pv,omitempty"`
	// ForcePV describes how the alarm may be forced.
	ForcePV *ForcePV `yaml:"force_pv,omitempty"`
	// AckPV is the acknowledgement PV.
	AckPV *AckPV `yaml:"ack_pv,omitempty"`
	// HeartbeatPV is the heartbeat PV.
	HeartbeatPV *HeartbeatPV `yaml:"heartbeat_pv,omitempty"`
	// Guidance holds the lines of a guidance block.
	Guidance []string `yaml:"guidance,omitempty"`
	// GuidanceURL links to external guidance.
	GuidanceURL string `yaml:"guidance_url,omitempty"`
}

// Group is an internal node of the alarm hierarchy.
type Group struct {
	// Name is the short group name.
	Name string `yaml:"name"`
	// Filename is the source file that declared the group.
	Filename string `yaml:"filename,omitempty"`
	// Children holds child paths in declaration order.
	Children []string `yaml:"children,omitempty"`

	Attributes `yaml:",inline"`
}

// NewGroup returns an empty group.
func NewGroup(name, filename string) *Group {
	return &Group{
		Name:     name,
		Filename: filename,
	}
}

// AddChild appends a child path. A path that is already present is left in
// place and ErrDuplicateChild is returned.
func (g *Group) AddChild(path string) error {
	if slices.Contains(g.Children, path) {
		return ErrDuplicateChild
	}

	g.Children = append(g.Children, path)

	return nil
}

// CountFilter delays an alarm until it has been seen Count times within Delay seconds.
type CountFilter struct {
	// Count is the number of transitions required.
	Count string `yaml:"count"`
	// Delay is the observation window in seconds.
	Delay string `yaml:"delay"`
}

// Channel is a monitored PV.
type Channel struct {
	// Name is the PV name.
	Name string `yaml:"name"`
	// Mask is the ALH alarm mask, empty when not given.
	Mask string `yaml:"mask,omitempty"`
	// CountFilter is the alarm count filter, nil when not given.
	CountFilter *CountFilter `yaml:"count_filter,omitempty"`

	Attributes `yaml:",inline"`
}

// NewChannel returns a channel without attributes.
func NewChannel(name string) *Channel {
	return &Channel{Name: name}
}

// InclusionMarker records that another source file is spliced in at this point.
type InclusionMarker struct {
	// Name is the synthesized placeholder name.
	Name string `yaml:"name"`
	// Filename is the referenced source file.
	Filename string `yaml:"filename"`
}

// Entity is the closed variant stored for every path. Exactly one of Group,
// Channel or Inclusion is set, as indicated by Kind.
type Entity struct {
	Kind      Kind             `yaml:"kind"`
	Group     *Group           `yaml:"group,omitempty"`
	Channel   *Channel         `yaml:"channel,omitempty"`
	Inclusion *InclusionMarker `yaml:"inclusion,omitempty"`
}

// GroupEntity wraps a group.
func GroupEntity(g *Group) *Entity {
	return &Entity{Kind: KindGroup, Group: g}
}

// ChannelEntity wraps a channel.
func ChannelEntity(c *Channel) *Entity {
	return &Entity{Kind: KindChannel, Channel: c}
}

// InclusionEntity wraps an inclusion marker.
func InclusionEntity(m *InclusionMarker) *Entity {
	return &Entity{Kind: KindInclusion, Inclusion: m}
}

// Name returns the short name of the wrapped value.
func (e *Entity) Name() string {
	switch e.Kind {
	case KindGroup:
		return e.Group.Name
	case KindChannel:
		return e.Channel.Name
	case KindInclusion:
		return e.Inclusion.Name
	default:
		return ""
	}
}

// Children returns the child paths of a group and nil for every other kind.
func (e *Entity) Children() []string {
	if e.Kind == KindGroup {
		return e.Group.Children
	}

	return nil
}

// Attributes returns the auxiliary attributes of a group or channel, and nil
// for inclusion markers.
func (e *Entity) Attributes() *Attributes {
	switch e.Kind {
	case KindGroup:
		return &e.Group.Attributes
	case KindChannel:
		return &e.Channel.Attributes
	case KindInclusion:
		return nil
	default:
		return nil
	}
}
