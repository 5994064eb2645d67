package anonymizer

import (
	"fmt"
	"strings"

	"github.com/suyashkumar/dicom/pkg/tag"
)

// DefaultUIDRoot is the UID prefix used when none is configured.
const DefaultUIDRoot = "9999"

const maxUIDRootLength = 24

// Config is a frozen rule set. It is immutable after Build and safe to share
// across concurrent anonymize calls.
type Config struct {
	uidRoot           string
	removePrivateTags bool
	removeCurves      bool
	removeOverlays    bool
	tagActions        map[tag.Tag]Action
}

// UIDRoot returns the configured UID prefix.
func (c *Config) UIDRoot() string {
	return c.uidRoot
}

// ActionFor resolves the effective action for a tag. The second return value
// reports whether any rule applies; false means the element is untouched.
//
// Resolution order, first match wins:
//  1. an explicit tag_actions entry (the default profile is seeded here)
//  2. group length elements are always removed
//  3. private tags, when remove_private_tags
//  4. curve groups, when remove_curves
//  5. overlay groups, when remove_overlays
func (c *Config) ActionFor(t tag.Tag) (Action, bool) {
	if a, ok := c.tagActions[t]; ok {
		return a, true
	}
	if isGroupLength(t) {
		return Remove(), true
	}
	if c.removePrivateTags && isPrivate(t) {
		return Remove(), true
	}
	if c.removeCurves && isCurve(t) {
		return Remove(), true
	}
	if c.removeOverlays && isOverlay(t) {
		return Remove(), true
	}
	return NoAction(), false
}

// TagActions returns a copy of the per-tag rules, default profile included.
func (c *Config) TagActions() map[tag.Tag]Action {
	out := make(map[tag.Tag]Action, len(c.tagActions))
	for t, a := range c.tagActions {
		out[t] = a
	}
	return out
}

// RemovePrivateTags reports the bulk policy for private groups.
func (c *Config) RemovePrivateTags() bool { return c.removePrivateTags }

// RemoveCurves reports the bulk policy for curve groups.
func (c *Config) RemoveCurves() bool { return c.removeCurves }

// RemoveOverlays reports the bulk policy for overlay groups.
func (c *Config) RemoveOverlays() bool { return c.removeOverlays }

// Builder returns a ConfigBuilder seeded from this config, for layering
// further overrides (a CLI-supplied UID root, excluded tags) on top of a
// parsed rule set.
func (c *Config) Builder() *ConfigBuilder {
	return &ConfigBuilder{
		uidRoot:           c.uidRoot,
		removePrivateTags: c.removePrivateTags,
		removeCurves:      c.removeCurves,
		removeOverlays:    c.removeOverlays,
		tagActions:        c.TagActions(),
	}
}

// ConfigBuilder assembles a Config. A new builder starts from the built-in
// default profile with private, curve and overlay removal enabled and the
// default UID root.
type ConfigBuilder struct {
	uidRoot           string
	removePrivateTags bool
	removeCurves      bool
	removeOverlays    bool
	tagActions        map[tag.Tag]Action
}

// NewConfigBuilder returns a builder seeded with the default profile.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		uidRoot:           DefaultUIDRoot,
		removePrivateTags: true,
		removeCurves:      true,
		removeOverlays:    true,
		tagActions:        DefaultProfile(),
	}
}

// UIDRoot sets the UID prefix used by HashUID. Validated at Build.
func (b *ConfigBuilder) UIDRoot(root string) *ConfigBuilder {
	b.uidRoot = root
	return b
}

// RemovePrivateTags controls removal of odd-group tags.
func (b *ConfigBuilder) RemovePrivateTags(remove bool) *ConfigBuilder {
	b.removePrivateTags = remove
	return b
}

// RemoveCurves controls removal of curve groups 0x5000-0x50FF.
func (b *ConfigBuilder) RemoveCurves(remove bool) *ConfigBuilder {
	b.removeCurves = remove
	return b
}

// RemoveOverlays controls removal of overlay groups 0x6000-0x60FF.
func (b *ConfigBuilder) RemoveOverlays(remove bool) *ConfigBuilder {
	b.removeOverlays = remove
	return b
}

// TagAction sets the action for a specific tag, overriding the default
// profile and the bulk policies.
func (b *ConfigBuilder) TagAction(t tag.Tag, a Action) *ConfigBuilder {
	b.tagActions[t] = a
	return b
}

// Build validates the accumulated settings and freezes them into a Config.
func (b *ConfigBuilder) Build() (*Config, error) {
	if err := validateUIDRoot(b.uidRoot); err != nil {
		return nil, err
	}
	actions := make(map[tag.Tag]Action, len(b.tagActions))
	for t, a := range b.tagActions {
		if err := a.validate(); err != nil {
			return nil, fmt.Errorf("tag %s: %w", FormatTag(t), err)
		}
		actions[t] = a
	}
	return &Config{
		uidRoot:           b.uidRoot,
		removePrivateTags: b.removePrivateTags,
		removeCurves:      b.removeCurves,
		removeOverlays:    b.removeOverlays,
		tagActions:        actions,
	}, nil
}

// DefaultConfig returns the frozen default rule set.
func DefaultConfig() *Config {
	cfg, err := NewConfigBuilder().Build()
	if err != nil {
		panic(fmt.Sprintf("default config must build: %v", err))
	}
	return cfg
}

// validateUIDRoot checks the dotted-decimal constraints: non-empty, each
// segment is "0" or starts with a non-zero digit, total length at most 24.
func validateUIDRoot(root string) error {
	if root == "" {
		return fmt.Errorf("%w: uid_root must not be empty", ErrConfigInvalid)
	}
	if len(root) > maxUIDRootLength {
		return fmt.Errorf("%w: uid_root must be at most %d characters, got %d",
			ErrConfigInvalid, maxUIDRootLength, len(root))
	}
	for _, segment := range strings.Split(root, ".") {
		if !validUIDSegment(segment) {
			return fmt.Errorf("%w: uid_root segment %q is not a valid number", ErrConfigInvalid, segment)
		}
	}
	return nil
}

func validUIDSegment(segment string) bool {
	if segment == "" {
		return false
	}
	for _, r := range segment {
		if r < '0' || r > '9' {
			return false
		}
	}
	return segment == "0" || segment[0] != '0'
}
