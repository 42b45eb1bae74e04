package negotiation

// Track bounds.
const (
	MinPosition = 0
	MaxPosition = 8
)

var positionNames = [...]string{
	"Maximum Demand",
	"Strong Position",
	"Favorable Terms",
	"Slight Advantage",
	"Even Split",
	"Slight Concession",
	"Major Concession",
	"Final Offer",
	"Walk Away",
}

// PositionName returns the display name of a track position.
func PositionName(position int) string {
	if position < MinPosition || position > MaxPosition {
		return "Unknown"
	}
	return positionNames[position]
}

// Track holds both sides' positions. The player starts low and concedes
// upward; the NPC starts high and concedes downward.
type Track struct {
	PC  int `json:"pc"`
	NPC int `json:"npc"`
}

// Gap returns the distance between the two positions.
func (t Track) Gap() int {
	if t.PC > t.NPC {
		return t.PC - t.NPC
	}
	return t.NPC - t.PC
}

// MoveNPC moves the NPC toward the player without crossing.
func (t Track) MoveNPC(steps int) Track {
	t.NPC = moveToward(t.NPC, t.PC, steps)
	return t
}

// MovePC moves the player toward the NPC. The player may pass the NPC;
// only the ends of the track stop the move.
func (t Track) MovePC(steps int) Track {
	if steps <= 0 {
		return t
	}
	t.PC = clamp(t.PC + steps*t.pcDirection())
	return t
}

// GiveGround moves the player after a lost roll. A lost roll never closes
// the deal, so a move that would end on the NPC carries one step past it.
func (t Track) GiveGround(steps int) Track {
	dir := t.pcDirection()
	moved := t.MovePC(steps)
	if steps <= 0 || moved.Gap() != 0 {
		return moved
	}
	if past := clamp(moved.PC + dir); past != moved.NPC {
		moved.PC = past
	} else {
		moved.PC -= dir
	}
	return moved
}

func (t Track) pcDirection() int {
	if t.NPC > t.PC {
		return 1
	}
	return -1
}

func moveToward(from, to, steps int) int {
	if steps <= 0 {
		return from
	}
	switch {
	case from < to:
		return clamp(min(from+steps, to))
	case from > to:
		return clamp(max(from-steps, to))
	default:
		return from
	}
}

func clamp(position int) int {
	return min(MaxPosition, max(MinPosition, position))
}
