package draftmodel

import "encoding/json"

// Draft is the shared state of one room: four fixed five-slot arrays, each
// slot holding either an empty value (nil) or a champion id.
type Draft struct {
	BlueChampions [5]*int
	RedChampions  [5]*int
	BlueBans      [5]*int
	RedBans       [5]*int
}

// Edit is a single client-submitted mutation: assign champion_id to position.
type Edit struct {
	ChampionID int      `json:"champion_id"`
	Position   Position `json:"position"`
}

// Apply overwrites the slot named by e.Position with e.ChampionID.
// It holds no lock; callers (the room registry) serialize access per room.
func (d *Draft) Apply(e Edit) {
	id := e.ChampionID

	switch e.Position {
	case Blue1:
		d.BlueChampions[0] = &id
	case Blue2:
		d.BlueChampions[1] = &id
	case Blue3:
		d.BlueChampions[2] = &id
	case Blue4:
		d.BlueChampions[3] = &id
	case Blue5:
		d.BlueChampions[4] = &id
	case Red1:
		d.RedChampions[0] = &id
	case Red2:
		d.RedChampions[1] = &id
	case Red3:
		d.RedChampions[2] = &id
	case Red4:
		d.RedChampions[3] = &id
	case Red5:
		d.RedChampions[4] = &id
	case BlueBan1:
		d.BlueBans[0] = &id
	case BlueBan2:
		d.BlueBans[1] = &id
	case BlueBan3:
		d.BlueBans[2] = &id
	case BlueBan4:
		d.BlueBans[3] = &id
	case BlueBan5:
		d.BlueBans[4] = &id
	case RedBan1:
		d.RedBans[0] = &id
	case RedBan2:
		d.RedBans[1] = &id
	case RedBan3:
		d.RedBans[2] = &id
	case RedBan4:
		d.RedBans[3] = &id
	case RedBan5:
		d.RedBans[4] = &id
	}
}

// Clone returns a deep copy, safe to hand to a goroutine that outlives the
// caller's lock (used by the fan-out path when sending a full snapshot).
func (d *Draft) Clone() *Draft {
	clone := &Draft{}
	copySlots(&clone.BlueChampions, &d.BlueChampions)
	copySlots(&clone.RedChampions, &d.RedChampions)
	copySlots(&clone.BlueBans, &d.BlueBans)
	copySlots(&clone.RedBans, &d.RedBans)
	return clone
}

func copySlots(dst, src *[5]*int) {
	for i, v := range src {
		if v == nil {
			dst[i] = nil
			continue
		}
		id := *v
		dst[i] = &id
	}
}

type draftWire struct {
	BlueChampions [5]*int `json:"blue_champions"`
	RedChampions  [5]*int `json:"red_champions"`
	BlueBans      [5]*int `json:"blue_bans"`
	RedBans       [5]*int `json:"red_bans"`
}

// MarshalJSON encodes the draft in the wire shape consumed by clients.
func (d Draft) MarshalJSON() ([]byte, error) {
	return json.Marshal(draftWire{
		BlueChampions: d.BlueChampions,
		RedChampions:  d.RedChampions,
		BlueBans:      d.BlueBans,
		RedBans:       d.RedBans,
	})
}

// UnmarshalJSON decodes the wire shape back into a Draft.
func (d *Draft) UnmarshalJSON(data []byte) error {
	var w draftWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	d.BlueChampions = w.BlueChampions
	d.RedChampions = w.RedChampions
	d.BlueBans = w.BlueBans
	d.RedBans = w.RedBans
	return nil
}
