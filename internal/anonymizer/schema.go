package anonymizer

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/suyashkumar/dicom/pkg/tag"

	"dicom-anonymizer/internal/hashing"
)

// Wire names of the action variants.
const (
	actionNameEmpty    = "empty"
	actionNameRemove   = "remove"
	actionNameKeep     = "keep"
	actionNameNone     = "none"
	actionNameReplace  = "replace"
	actionNameHash     = "hash"
	actionNameHashDate = "hash_date"
	actionNameHashUID  = "hash_uid"
)

type actionJSON struct {
	Action string  `json:"action"`
	Value  *string `json:"value,omitempty"`
	Length *int    `json:"length,omitempty"`
}

type configJSON struct {
	UIDRoot           *string               `json:"uid_root,omitempty"`
	RemovePrivateTags *bool                 `json:"remove_private_tags,omitempty"`
	RemoveCurves      *bool                 `json:"remove_curves,omitempty"`
	RemoveOverlays    *bool                 `json:"remove_overlays,omitempty"`
	TagActions        map[string]actionJSON `json:"tag_actions,omitempty"`
}

func encodeAction(a Action) actionJSON {
	switch a.Kind {
	case ActionEmpty:
		return actionJSON{Action: actionNameEmpty}
	case ActionRemove:
		return actionJSON{Action: actionNameRemove}
	case ActionKeep:
		return actionJSON{Action: actionNameKeep}
	case ActionReplace:
		value := a.Value
		return actionJSON{Action: actionNameReplace, Value: &value}
	case ActionHash:
		if a.Length == 0 {
			return actionJSON{Action: actionNameHash}
		}
		length := a.Length
		return actionJSON{Action: actionNameHash, Length: &length}
	case ActionHashDate:
		return actionJSON{Action: actionNameHashDate}
	case ActionHashUID:
		return actionJSON{Action: actionNameHashUID}
	default:
		return actionJSON{Action: actionNameNone}
	}
}

func decodeAction(key string, aj actionJSON) (Action, error) {
	if aj.Value != nil && aj.Action != actionNameReplace {
		return Action{}, fmt.Errorf("%w: tag %s: %q action takes no value", ErrConfigInvalid, key, aj.Action)
	}
	if aj.Length != nil && aj.Action != actionNameHash {
		return Action{}, fmt.Errorf("%w: tag %s: %q action takes no length", ErrConfigInvalid, key, aj.Action)
	}
	switch aj.Action {
	case actionNameEmpty:
		return Empty(), nil
	case actionNameRemove:
		return Remove(), nil
	case actionNameKeep:
		return Keep(), nil
	case actionNameNone:
		return NoAction(), nil
	case actionNameReplace:
		if aj.Value == nil {
			return Action{}, fmt.Errorf("%w: tag %s: replace action requires a value", ErrConfigInvalid, key)
		}
		return Replace(*aj.Value), nil
	case actionNameHash:
		if aj.Length == nil {
			return Hash(0), nil
		}
		return Hash(*aj.Length), nil
	case actionNameHashDate:
		return HashDate(), nil
	case actionNameHashUID:
		return HashUID(), nil
	default:
		return Action{}, fmt.Errorf("%w: tag %s: unknown action %q", ErrConfigInvalid, key, aj.Action)
	}
}

// ParseConfig decodes the JSON rule-set schema into a frozen Config. Omitted
// fields take their defaults (uid_root "9999", all bulk removals on, the
// built-in profile); unknown fields are rejected.
func ParseConfig(data []byte) (*Config, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var cj configJSON
	if err := dec.Decode(&cj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}
	// A second document in the stream is as much a schema violation as an
	// unknown field.
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after config object", ErrConfigInvalid)
	}

	b := NewConfigBuilder()
	if cj.UIDRoot != nil {
		b.UIDRoot(*cj.UIDRoot)
	}
	if cj.RemovePrivateTags != nil {
		b.RemovePrivateTags(*cj.RemovePrivateTags)
	}
	if cj.RemoveCurves != nil {
		b.RemoveCurves(*cj.RemoveCurves)
	}
	if cj.RemoveOverlays != nil {
		b.RemoveOverlays(*cj.RemoveOverlays)
	}
	for key, aj := range cj.TagActions {
		t, err := ParseTag(key)
		if err != nil {
			return nil, err
		}
		action, err := decodeAction(key, aj)
		if err != nil {
			return nil, err
		}
		b.TagAction(t, action)
	}
	return b.Build()
}

// MarshalJSON emits the full effective config, default profile included, so
// that parse(serialize(config)) reproduces the same rule set.
func (c *Config) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.toJSON(c.tagActions))
}

// Fingerprint returns a short digest of the serialized rule set. Equal
// configs share a fingerprint and any change to the serialized form changes
// it, so callers can use it to invalidate state recorded under a different
// rule set. Spellings that resolve alike but serialize differently (Keep and
// None, Hash with length 0 and 16) give different fingerprints.
func (c *Config) Fingerprint() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return ""
	}
	return hashing.HashString(data, 16)
}

// MarshalDiffJSON emits only the settings that differ from the built-in
// defaults; feeding the result back through ParseConfig reproduces c.
func (c *Config) MarshalDiffJSON() ([]byte, error) {
	diff := make(map[tag.Tag]Action)
	for t, a := range c.tagActions {
		if base, ok := defaultProfile[t]; !ok || base != a {
			diff[t] = a
		}
	}
	return json.Marshal(c.toJSON(diff))
}

func (c *Config) toJSON(actions map[tag.Tag]Action) configJSON {
	uidRoot := c.uidRoot
	removePrivate := c.removePrivateTags
	removeCurves := c.removeCurves
	removeOverlays := c.removeOverlays
	encoded := make(map[string]actionJSON, len(actions))
	for t, a := range actions {
		encoded[FormatTag(t)] = encodeAction(a)
	}
	return configJSON{
		UIDRoot:           &uidRoot,
		RemovePrivateTags: &removePrivate,
		RemoveCurves:      &removeCurves,
		RemoveOverlays:    &removeOverlays,
		TagActions:        encoded,
	}
}
