// Package draftmodel holds the pure draft board value and its edit semantics.
package draftmodel

import (
	"encoding/json"
	"fmt"
)

// Position identifies one of the twenty fixed slots on a draft board.
type Position string

const (
	Blue1 Position = "Blue1"
	Blue2 Position = "Blue2"
	Blue3 Position = "Blue3"
	Blue4 Position = "Blue4"
	Blue5 Position = "Blue5"

	Red1 Position = "Red1"
	Red2 Position = "Red2"
	Red3 Position = "Red3"
	Red4 Position = "Red4"
	Red5 Position = "Red5"

	BlueBan1 Position = "BlueBan1"
	BlueBan2 Position = "BlueBan2"
	BlueBan3 Position = "BlueBan3"
	BlueBan4 Position = "BlueBan4"
	BlueBan5 Position = "BlueBan5"

	RedBan1 Position = "RedBan1"
	RedBan2 Position = "RedBan2"
	RedBan3 Position = "RedBan3"
	RedBan4 Position = "RedBan4"
	RedBan5 Position = "RedBan5"
)

var validPositions = map[Position]struct{}{
	Blue1: {}, Blue2: {}, Blue3: {}, Blue4: {}, Blue5: {},
	Red1: {}, Red2: {}, Red3: {}, Red4: {}, Red5: {},
	BlueBan1: {}, BlueBan2: {}, BlueBan3: {}, BlueBan4: {}, BlueBan5: {},
	RedBan1: {}, RedBan2: {}, RedBan3: {}, RedBan4: {}, RedBan5: {},
}

// IsValid reports whether p is one of the twenty closed-set tags.
func (p Position) IsValid() bool {
	_, ok := validPositions[p]
	return ok
}

// MarshalJSON encodes the position as its string tag, rejecting unknown tags.
func (p Position) MarshalJSON() ([]byte, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("draftmodel: invalid position %q", string(p))
	}
	return json.Marshal(string(p))
}

// UnmarshalJSON decodes a position tag, rejecting anything outside the closed set.
func (p *Position) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	candidate := Position(s)
	if !candidate.IsValid() {
		return fmt.Errorf("draftmodel: invalid position %q", s)
	}

	*p = candidate
	return nil
}
