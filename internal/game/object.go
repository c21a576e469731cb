package game

import (
	"math/rand"

	"github.com/ChristianIvicevic/sorcery/internal/game/counters"
	"github.com/ChristianIvicevic/sorcery/internal/game/descriptor"
	"github.com/ChristianIvicevic/sorcery/internal/game/gameerr"
)

// ZoneName identifies a game zone. Library, hand and graveyard are
// per-player; battlefield, stack, exile and command are shared.
type ZoneName string

const (
	ZoneLibrary     ZoneName = "library"
	ZoneHand        ZoneName = "hand"
	ZoneGraveyard   ZoneName = "graveyard"
	ZoneBattlefield ZoneName = "battlefield"
	ZoneStack       ZoneName = "stack"
	ZoneExile       ZoneName = "exile"
	ZoneCommand     ZoneName = "command"
)

func (z ZoneName) isPerPlayer() bool {
	return z == ZoneLibrary || z == ZoneHand || z == ZoneGraveyard
}

// isHidden reports whether objects in the zone are face down to opponents.
func (z ZoneName) isHidden() bool {
	return z == ZoneLibrary || z == ZoneHand
}

// GameObject is one card or token instance in a zone. Moving an object
// between zones creates a new object with a new ID; references to the old ID
// resolve as "no longer exists".
type GameObject struct {
	ID           string
	Name         string
	OwnerID      string
	ControllerID string
	Zone         ZoneName
	Def          *descriptor.CardDefinition

	Tapped        bool
	FaceDown      bool
	SummoningSick bool
	Token         bool
	Damage        int
	DamageSources map[string]int
	// DeathtouchDamage latches when damage from a deathtouch source was
	// marked; cleared with damage during cleanup.
	DeathtouchDamage bool
	Counters      *counters.Counters
	AttachedTo    string
	// EnteredTimestamp orders battlefield entry for continuous effects.
	EnteredTimestamp uint64

	// Combat state, cleared when combat ends.
	Attacking string
	Blocking  []string
	BlockedBy []string
}

func (o *GameObject) copyShell(id string) *GameObject {
	return &GameObject{
		ID:            id,
		Name:          o.Name,
		OwnerID:       o.OwnerID,
		ControllerID:  o.OwnerID, // control reverts to owner on zone change
		Def:           o.Def,
		DamageSources: make(map[string]int),
		Counters:      counters.NewCounters(),
	}
}

// IsCreature reports whether the object's printed types include creature.
// Current types come from the layer engine, not from here.
func (o *GameObject) IsCreature() bool {
	return o.Def != nil && o.Def.IsType("creature")
}

// IsLand reports whether the object's printed types include land.
func (o *GameObject) IsLand() bool {
	return o.Def != nil && o.Def.IsType("land")
}

// zoneStore owns every object in the game and the lists that order them
// within zones. Object IDs come from the game's seeded generator so two runs
// of the same game mint the same IDs, keeping recorded decisions replayable.
type zoneStore struct {
	newID   func() string
	objects map[string]*GameObject

	// Per-player ordered zones, top of library at index 0.
	libraries  map[string][]*GameObject
	hands      map[string][]*GameObject
	graveyards map[string][]*GameObject

	battlefield []*GameObject
	stack       []*GameObject
	exile       []*GameObject
	command     []*GameObject

	entryClock uint64
}

func newZoneStore(newID func() string) *zoneStore {
	return &zoneStore{
		newID:      newID,
		objects:    make(map[string]*GameObject),
		libraries:  make(map[string][]*GameObject),
		hands:      make(map[string][]*GameObject),
		graveyards: make(map[string][]*GameObject),
	}
}

// Find returns the object with the given ID if it still exists.
func (zs *zoneStore) Find(id string) (*GameObject, bool) {
	obj, ok := zs.objects[id]
	return obj, ok
}

// AddToLibrary creates a fresh object from a definition at the bottom of the
// owner's library.
func (zs *zoneStore) AddToLibrary(ownerID string, def *descriptor.CardDefinition) *GameObject {
	obj := &GameObject{
		ID:            zs.newID(),
		Name:          def.Name,
		OwnerID:       ownerID,
		ControllerID:  ownerID,
		Zone:          ZoneLibrary,
		Def:           def,
		DamageSources: make(map[string]int),
		Counters:      counters.NewCounters(),
	}
	zs.objects[obj.ID] = obj
	zs.libraries[ownerID] = append(zs.libraries[ownerID], obj)
	return obj
}

// CreateToken puts a new token object directly onto the battlefield.
func (zs *zoneStore) CreateToken(controllerID string, def *descriptor.CardDefinition) *GameObject {
	obj := &GameObject{
		ID:            zs.newID(),
		Name:          def.Name,
		OwnerID:       controllerID,
		ControllerID:  controllerID,
		Zone:          ZoneBattlefield,
		Def:           def,
		Token:         true,
		SummoningSick: true,
		DamageSources: make(map[string]int),
		Counters:      counters.NewCounters(),
	}
	zs.entryClock++
	obj.EnteredTimestamp = zs.entryClock
	zs.objects[obj.ID] = obj
	zs.battlefield = append(zs.battlefield, obj)
	return obj
}

// Move takes an object out of its current zone and creates its successor in
// the destination zone, returning the new object. The old ID is forgotten.
// Tokens that would leave the battlefield cease to exist and Move returns
// nil. Moving within the same zone is a no-op keeping the same identity.
func (zs *zoneStore) Move(id string, to ZoneName) (*GameObject, error) {
	obj, ok := zs.objects[id]
	if !ok {
		return nil, gameerr.IllegalAction("object_gone", "object %s no longer exists", id)
	}
	if obj.Zone == to {
		return obj, nil
	}

	zs.removeFromZone(obj)
	delete(zs.objects, id)

	if obj.Token && obj.Zone == ZoneBattlefield {
		// Tokens exist only on the battlefield.
		return nil, nil
	}

	next := obj.copyShell(zs.newID())
	next.Zone = to
	switch to {
	case ZoneLibrary:
		zs.libraries[next.OwnerID] = append(zs.libraries[next.OwnerID], next)
	case ZoneHand:
		zs.hands[next.OwnerID] = append(zs.hands[next.OwnerID], next)
	case ZoneGraveyard:
		zs.graveyards[next.OwnerID] = append(zs.graveyards[next.OwnerID], next)
	case ZoneBattlefield:
		next.SummoningSick = true
		zs.entryClock++
		next.EnteredTimestamp = zs.entryClock
		zs.battlefield = append(zs.battlefield, next)
	case ZoneStack:
		zs.stack = append(zs.stack, next)
	case ZoneExile:
		zs.exile = append(zs.exile, next)
	case ZoneCommand:
		zs.command = append(zs.command, next)
	default:
		return nil, gameerr.Invariant("unknown zone %q", to)
	}
	zs.objects[next.ID] = next
	return next, nil
}

// MoveToLibraryTop moves an object to the top of its owner's library.
func (zs *zoneStore) MoveToLibraryTop(id string) (*GameObject, error) {
	next, err := zs.Move(id, ZoneLibrary)
	if err != nil || next == nil {
		return next, err
	}
	lib := zs.libraries[next.OwnerID]
	idx := -1
	for i, o := range lib {
		if o.ID == next.ID {
			idx = i
			break
		}
	}
	for i := idx; i > 0; i-- {
		lib[i], lib[i-1] = lib[i-1], lib[i]
	}
	return next, nil
}

func (zs *zoneStore) removeFromZone(obj *GameObject) {
	remove := func(list []*GameObject) []*GameObject {
		for i, o := range list {
			if o.ID == obj.ID {
				return append(list[:i], list[i+1:]...)
			}
		}
		return list
	}
	switch obj.Zone {
	case ZoneLibrary:
		zs.libraries[obj.OwnerID] = remove(zs.libraries[obj.OwnerID])
	case ZoneHand:
		zs.hands[obj.OwnerID] = remove(zs.hands[obj.OwnerID])
	case ZoneGraveyard:
		zs.graveyards[obj.OwnerID] = remove(zs.graveyards[obj.OwnerID])
	case ZoneBattlefield:
		zs.battlefield = remove(zs.battlefield)
	case ZoneStack:
		zs.stack = remove(zs.stack)
	case ZoneExile:
		zs.exile = remove(zs.exile)
	case ZoneCommand:
		zs.command = remove(zs.command)
	}
}

// Shuffle permutes a player's library using the game's seeded random source,
// keeping replays deterministic.
func (zs *zoneStore) Shuffle(playerID string, rng *rand.Rand) {
	lib := zs.libraries[playerID]
	rng.Shuffle(len(lib), func(i, j int) {
		lib[i], lib[j] = lib[j], lib[i]
	})
}

// TopOfLibrary returns the top object of the player's library, or nil when
// the library is empty.
func (zs *zoneStore) TopOfLibrary(playerID string) *GameObject {
	lib := zs.libraries[playerID]
	if len(lib) == 0 {
		return nil
	}
	return lib[0]
}

// Library returns a player's library, top first.
func (zs *zoneStore) Library(playerID string) []*GameObject {
	return zs.libraries[playerID]
}

// Hand returns a player's hand.
func (zs *zoneStore) Hand(playerID string) []*GameObject {
	return zs.hands[playerID]
}

// Graveyard returns a player's graveyard.
func (zs *zoneStore) Graveyard(playerID string) []*GameObject {
	return zs.graveyards[playerID]
}

// Battlefield returns the shared battlefield in entry order.
func (zs *zoneStore) Battlefield() []*GameObject {
	return zs.battlefield
}
