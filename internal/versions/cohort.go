package versions

// Cohort models one protocol revision. It owns an override map of codecs and
// wire ids and a pointer to the cohort it was derived from; resolution walks
// the parent chain so a cohort's table is never a flattened copy of its
// ancestor's (design note in spec.md §9).
type Cohort struct {
	Key    int
	Parent *Cohort

	codecs  map[PacketKind]Codec
	wireIDs map[PacketKind]uint16
}

// tombstone marks a PacketKind as explicitly removed on this cohort (e.g.
// USER_PRESENCE_SINGLE on cohorts <= 20121223): present in the override map
// with a zero Codec, so chain-walking stops instead of falling through to
// the parent's entry.
var tombstone = Codec{}

func newCohort(key int, parent *Cohort) *Cohort {
	return &Cohort{
		Key:     key,
		Parent:  parent,
		codecs:  make(map[PacketKind]Codec),
		wireIDs: make(map[PacketKind]uint16),
	}
}

func (c *Cohort) set(kind PacketKind, id uint16, codec Codec) {
	c.wireIDs[kind] = id
	c.codecs[kind] = codec
}

func (c *Cohort) remove(kind PacketKind) {
	c.codecs[kind] = tombstone
}

// Codec resolves kind by walking from c up through its ancestors. The first
// cohort in the chain that mentions kind at all wins — even if that mention
// is a tombstone, in which case ok is false and the packet is absent on c.
func (c *Cohort) Codec(kind PacketKind) (Codec, bool) {
	for cur := c; cur != nil; cur = cur.Parent {
		if cd, ok := cur.codecs[kind]; ok {
			if cd.Encode == nil && cd.Decode == nil {
				return Codec{}, false
			}
			return cd, true
		}
	}
	return Codec{}, false
}

// WireID resolves the numeric packet id kind is encoded/decoded under on
// this cohort.
func (c *Cohort) WireID(kind PacketKind) (uint16, bool) {
	for cur := c; cur != nil; cur = cur.Parent {
		if id, ok := cur.wireIDs[kind]; ok {
			return id, true
		}
	}
	return 0, false
}

// KindByWireID is the inverse of WireID, used by the session read loop to
// map an inbound numeric id back to a logical kind before dispatch.
func (c *Cohort) KindByWireID(id uint16) (PacketKind, bool) {
	for cur := c; cur != nil; cur = cur.Parent {
		for kind, wid := range cur.wireIDs {
			if wid == id {
				if cd, ok := cur.codecs[kind]; ok && cd.Encode == nil && cd.Decode == nil {
					continue
				}
				return kind, true
			}
		}
	}
	return "", false
}

// Supports reports whether kind has a live (non-tombstoned) codec on c.
func (c *Cohort) Supports(kind PacketKind) bool {
	_, ok := c.Codec(kind)
	return ok
}

// ImplicitGzip is true for cohorts <= 323: the compressed-flag byte is
// absent from the frame and the payload is unconditionally gzipped.
func (c *Cohort) ImplicitGzip() bool { return c.Key <= 323 }

// UsesIRCEntities is true for cohorts <= 1710, which represent bot-like
// entities with IRC_JOIN/IRC_QUIT rather than ordinary presence packets.
func (c *Cohort) UsesIRCEntities() bool { return c.Key <= 1710 }

// HasCombinedPresenceStats is true for cohorts <= 1700, which lack separate
// USER_PRESENCE/USER_STATS packets.
func (c *Cohort) HasCombinedPresenceStats() bool { return c.Key <= 1700 }

// HasPresenceBundle is true for cohorts newer than 20121223.
func (c *Cohort) HasPresenceBundle() bool { return c.Key > 20121223 }
