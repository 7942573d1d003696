package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

type MatchStage string

const (
	StageGroup    MatchStage = "group"
	StageKnockout MatchStage = "knockout"
)

// SlotResolverGroupResult is the only resolver type currently produced:
// "the participant ranked Pos in Group once the group stage ends".
const SlotResolverGroupResult = "group_result"

type SlotResolver struct {
	Type  string `json:"type"`
	Group string `json:"group"`
	Pos   int    `json:"pos"`
}

// MatchDetails is the scheduling metadata document attached to every match.
// The persisted form is schema-free JSON; keys this version does not know
// about survive a read-modify-write cycle untouched via Extra.
type MatchDetails struct {
	// Leg is 1 or 2 for two-legged ties, 0 otherwise.
	Leg int
	// GroupID links the two legs of one tie (or the two fixtures feeding one
	// knockout slot) under a shared opaque key.
	GroupID string
	// MatchIndex is the position within the round; nil when the match does
	// not feed a downstream slot (e.g. league fixtures, the 3rd-place match).
	MatchIndex *int
	// GroupName is the group-stage bucket label ("Group A", ...).
	GroupName string
	Stage     MatchStage
	RoundName string
	// IsThirdPlace marks the manually generated 3rd-place playoff.
	IsThirdPlace bool
	// ResolveHome/ResolveAway describe deferred slots. Once the progression
	// resolver fills the concrete participant id the descriptor is kept as a
	// historical record, superseded by the id.
	ResolveHome *SlotResolver
	ResolveAway *SlotResolver

	// Extra carries unknown keys for forward compatibility.
	Extra map[string]json.RawMessage
}

const (
	detailKeyLeg          = "leg"
	detailKeyGroupID      = "groupId"
	detailKeyMatchIndex   = "matchIndex"
	detailKeyGroupName    = "groupName"
	detailKeyStage        = "stage"
	detailKeyRoundName    = "roundName"
	detailKeyIsThirdPlace = "is3rdPlace"
	detailKeyResolveHome  = "resolve_home"
	detailKeyResolveAway  = "resolve_away"
)

func (d MatchDetails) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(d.Extra)+9)
	for k, v := range d.Extra {
		out[k] = v
	}

	set := func(key string, v interface{}) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal details key %q: %w", key, err)
		}
		out[key] = raw
		return nil
	}

	if d.Leg != 0 {
		if err := set(detailKeyLeg, d.Leg); err != nil {
			return nil, err
		}
	}
	if d.GroupID != "" {
		if err := set(detailKeyGroupID, d.GroupID); err != nil {
			return nil, err
		}
	}
	if d.MatchIndex != nil {
		if err := set(detailKeyMatchIndex, *d.MatchIndex); err != nil {
			return nil, err
		}
	}
	if d.GroupName != "" {
		if err := set(detailKeyGroupName, d.GroupName); err != nil {
			return nil, err
		}
	}
	if d.Stage != "" {
		if err := set(detailKeyStage, d.Stage); err != nil {
			return nil, err
		}
	}
	if d.RoundName != "" {
		if err := set(detailKeyRoundName, d.RoundName); err != nil {
			return nil, err
		}
	}
	if d.IsThirdPlace {
		if err := set(detailKeyIsThirdPlace, true); err != nil {
			return nil, err
		}
	}
	if d.ResolveHome != nil {
		if err := set(detailKeyResolveHome, d.ResolveHome); err != nil {
			return nil, err
		}
	}
	if d.ResolveAway != nil {
		if err := set(detailKeyResolveAway, d.ResolveAway); err != nil {
			return nil, err
		}
	}

	return json.Marshal(out)
}

func (d *MatchDetails) UnmarshalJSON(data []byte) error {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*d = MatchDetails{}

	take := func(key string, dst interface{}) error {
		v, ok := raw[key]
		if !ok {
			return nil
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return fmt.Errorf("unmarshal details key %q: %w", key, err)
		}
		delete(raw, key)
		return nil
	}

	if err := take(detailKeyLeg, &d.Leg); err != nil {
		return err
	}
	if err := take(detailKeyGroupID, &d.GroupID); err != nil {
		return err
	}
	if err := take(detailKeyMatchIndex, &d.MatchIndex); err != nil {
		return err
	}
	if err := take(detailKeyGroupName, &d.GroupName); err != nil {
		return err
	}
	if err := take(detailKeyStage, &d.Stage); err != nil {
		return err
	}
	if err := take(detailKeyRoundName, &d.RoundName); err != nil {
		return err
	}
	if err := take(detailKeyIsThirdPlace, &d.IsThirdPlace); err != nil {
		return err
	}
	if err := take(detailKeyResolveHome, &d.ResolveHome); err != nil {
		return err
	}
	if err := take(detailKeyResolveAway, &d.ResolveAway); err != nil {
		return err
	}

	if len(raw) > 0 {
		d.Extra = raw
	}
	return nil
}

// Value implements driver.Valuer so repositories can bind the document
// directly to a jsonb column.
func (d MatchDetails) Value() (driver.Value, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Scan implements sql.Scanner.
func (d *MatchDetails) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = MatchDetails{}
		return nil
	case []byte:
		if len(v) == 0 {
			*d = MatchDetails{}
			return nil
		}
		return json.Unmarshal(v, d)
	case string:
		if v == "" {
			*d = MatchDetails{}
			return nil
		}
		return json.Unmarshal([]byte(v), d)
	default:
		return fmt.Errorf("unsupported type %T for MatchDetails", src)
	}
}
