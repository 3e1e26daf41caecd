// Package hld mirrors the byte layout of the host VM's internal structs and
// exposes the function- and global-pointer tables the host hands the MRE at
// init. "HLD" names the host's internal engine layer; the MRE never
// allocates these structs, it only ever receives pointers into memory the
// host already owns.
package hld

import "unsafe"

// EventType is the host's fixed event-category enumeration. Event-number
// disambiguates within a type (see EventKey in package eventtrap).
type EventType int32

const (
	EventCreate EventType = iota
	EventDestroy
	EventAlarm
	EventStep
	EventCollision
	eventUnknown0
	eventUnknown1
	EventOther
	EventDraw
	eventUnknown2
	eventUnknown3
	eventUnknown4
	eventUnknown5
	eventUnknown6
	eventUnknown7
)

// NumEventTypes is the size of the host's event-listener-array dimension
// (HLDObject.eventListeners has exactly this many slots).
const NumEventTypes = 15

var eventTypeNames = map[EventType]string{
	EventCreate:    "create",
	EventDestroy:   "destroy",
	EventAlarm:     "alarm",
	EventStep:      "step",
	EventCollision: "collision",
	EventOther:     "other",
	EventDraw:      "draw",
}

func (t EventType) String() string {
	if name, ok := eventTypeNames[t]; ok {
		return name
	}
	return "reserved"
}

// StepEventType disambiguates HLD_EVENT_STEP sub-events.
type StepEventType int32

const (
	StepNormal StepEventType = iota
	StepPre
	StepPost
)

// OtherEventType disambiguates HLD_EVENT_OTHER sub-events.
type OtherEventType int32

const (
	OtherOutside OtherEventType = iota
	OtherBoundary
	OtherGameStart
	OtherGameEnd
	OtherRoomStart
	OtherRoomEnd
	OtherNoMoreLives
	OtherAnimationEnd
	OtherEndOfPath
	OtherNoMoreHealth
)

// DrawEventType disambiguates HLD_EVENT_DRAW sub-events.
type DrawEventType int32

const (
	DrawNormal    DrawEventType = 0
	DrawGUINormal DrawEventType = 64
)

// MaxAlarms is the fixed alarm-slot count per instance (spec.md §1: alarm
// event-number is 0-11).
const MaxAlarms = 12

// MaxSubEvent is the safe upper bound used for "other" and "draw" event
// sub-indices; the host's real enumeration is not known at build time (see
// spec.md §9 open question (a)).
const MaxSubEvent = 128

// Vec2 mirrors HLDVecReal, a 2D float vector used for position/velocity.
type Vec2 struct {
	X, Y float32
}

// BoundingBox mirrors HLDBoundingBox.
type BoundingBox struct {
	Left, Top, Right, Bottom int32
}

// ArraySlice mirrors HLDArrayPreSize: a host-owned size+pointer pair. Size is
// read directly from host memory; Go code must never resize it in place.
type ArraySlice struct {
	Size     uintptr
	Elements unsafe.Pointer
}

// PrimitiveType is the host's variant/primitive tag.
type PrimitiveType int32

const (
	PrimitiveReal PrimitiveType = iota
	PrimitiveString
	PrimitiveArray
	PrimitivePtr
	PrimitiveVec3
	PrimitiveUndefined
	PrimitiveObject
	PrimitiveInt32
	PrimitiveVec4
	PrimitiveMatrix
	PrimitiveInt64
	PrimitiveAccessor
	PrimitiveNull
	PrimitiveBool
	PrimitiveIterator
)

// PrimitiveValue is the host's tagged-union payload. Only one field is valid
// at a time, selected by the enclosing Primitive's Type.
type PrimitiveValue struct {
	// Raw backs the union's storage; the AsReal/SetReal/AsPtr/SetPtr
	// accessors below reinterpret it.
	Raw [3]uint32
}

// AsReal reinterprets the value as a float64 ("r" in the host's union).
func (v *PrimitiveValue) AsReal() float64 {
	return *(*float64)(unsafe.Pointer(&v.Raw[0]))
}

// SetReal stores a float64 into the union.
func (v *PrimitiveValue) SetReal(r float64) {
	*(*float64)(unsafe.Pointer(&v.Raw[0])) = r
}

// AsPtr reinterprets the value as a pointer ("p" in the host's union).
func (v *PrimitiveValue) AsPtr() unsafe.Pointer {
	return *(*unsafe.Pointer)(unsafe.Pointer(&v.Raw[0]))
}

// SetPtr stores a pointer into the union.
func (v *PrimitiveValue) SetPtr(p unsafe.Pointer) {
	*(*unsafe.Pointer)(unsafe.Pointer(&v.Raw[0])) = p
}

// Primitive mirrors the host's tagged-union variant primitive exactly,
// per spec.md §9 ("mirror its byte layout exactly").
type Primitive struct {
	Value PrimitiveValue
	Type  PrimitiveType
}

// StringPayload is the referenced-counted string variant payload.
type StringPayload struct {
	Chars  *byte
	Refs   uintptr
	Length uintptr
}

// ArrayPayload is the reference-counted array variant payload.
type ArrayPayload struct {
	Refs         uintptr
	SubArrays    *ArraySlice
	reserved     unsafe.Pointer
	reservedFlag uint32
	NumSubArrays uintptr
}

// IncRef increments the refcount of a pointer-type primitive payload. Called
// from PrimitivePointerCopy (the host's duplication hook, spec.md §6).
func (s *StringPayload) IncRef() { s.Refs++ }

// DecRef decrements the refcount; callers must not dereference after it
// reaches zero.
func (s *StringPayload) DecRef() {
	if s.Refs > 0 {
		s.Refs--
	}
}

// EventHandler is the C-ABI function pointer signature for a single object
// event handler: f(target, other).
type EventHandler unsafe.Pointer

// NamedFunction mirrors HLDNamedFunction: a debug-named function pointer
// slot the host stores inside an Event record.
type NamedFunction struct {
	Name     *byte
	Function unsafe.Pointer
}

// Event mirrors a single HLDEvent record. Most host-internal fields are
// opaque and retained only to preserve struct size/offset for the fields the
// MRE actually touches (HandlerIndex, Handler).
type Event struct {
	ClassDef     unsafe.Pointer
	EventNext    *Event
	opaque0      [0x58 - 0x8]byte
	Name         *byte
	HandlerIndex uint32
	Handler      *NamedFunction
	opaque1      [0x80 - 0x6c]byte
}

// EventWrapper mirrors HLDEventWrapper: the slot the host's dispatcher
// actually calls through. The MRE replaces Event.Handler (by repointing
// this wrapper at the universal trampoline) rather than mutating host code.
type EventWrapper struct {
	ClassDef unsafe.Pointer
	Event    *Event
	opaque   [8]byte
}

// ObjectFlags mirrors HLDObject's packed bitfield byte (solid:1, visible:1,
// persistent:1, pad:1, collisions:1, pad:3) widened to one bool per flag;
// the 4-byte total size matches the original bitfield-plus-padding layout.
type ObjectFlags struct {
	Solid      bool
	Visible    bool
	Persistent bool
	Collisions bool
}

// Object mirrors the host's per-class object record. The MRE mutates
// Parent, SpriteIndex, MaskIndex, Depth, the flag bits, and — in
// particular — the function pointer inside each EventListeners slot.
type Object struct {
	Flags         ObjectFlags
	SpriteIndex   int32
	Depth         uint32
	ParentIndex   int32
	MaskIndex     int32
	Name          *byte
	Index         int32
	Physics       uint32
	opaque0       [0x48 - 0x24]byte
	Parent        *Object
	EventListeners [NumEventTypes]ArraySlice
	InstanceFirst *DLLNode
	InstanceLast  *DLLNode
	NumInstances  uint32
	opaque1       [12]byte
}

// DLLNode mirrors HLDNodeDLL, a doubly-linked-list node the host uses for
// its per-object and per-room instance lists.
type DLLNode struct {
	Next *DLLNode
	Prev *DLLNode
	Item unsafe.Pointer
}

// Instance mirrors the host's live-entity record. Only the fields the MRE's
// instance manager and pass-through surface need are named; everything else
// is opaque padding kept to preserve field offsets.
type Instance struct {
	ClassDef      unsafe.Pointer
	opaque0       [0x30 - 0x8]byte
	Locals        *ClosedHashTable
	opaque1       [0x48 - 0x38]byte
	ID            uint32
	ObjectIndex   int32
	Object        *Object
	opaque2       [8]byte
	SpriteIndex   int32
	ImageIndex    float32
	ImageSpeed    float32
	ImageScale    Vec2
	ImageAngle    float32
	ImageAlpha    float32
	ImageBlend    uint32
	MaskIndex     int32
	opaque3       [4]byte
	Pos           Vec2
	PosStart      Vec2
	PosPrev       Vec2
	Direction     float32
	Speed         float32
	Friction      float32
	GravityDir    float32
	Gravity       float32
	SpeedX        float32
	SpeedY        float32
	BBox          BoundingBox
	Alarms        [MaxAlarms]int32
	PathIndex     int32
	PathPos       float32
	PathPosPrev   float32
	opaque4       [0x148 - 0x110]byte
	InstanceNext  *Instance
	InstancePrev  *Instance
	Depth         float32
	opaque5       [4]byte
	LastUpdate    uint32
	opaque6       [0x184 - 0x164]byte
}

// OpenHashItem mirrors HLDOpenHashItem: a node in the host's sparse,
// int32-keyed open hash table (used for the object and instance tables).
type OpenHashItem struct {
	Prev  *OpenHashItem
	Next  *OpenHashItem
	Key   int32
	Value unsafe.Pointer
}

// OpenHashSlot mirrors HLDOpenHashSlot.
type OpenHashSlot struct {
	First *OpenHashItem
	Last  *OpenHashItem
}

// OpenHashTable mirrors HLDOpenHashTable.
type OpenHashTable struct {
	Slots    *OpenHashSlot
	KeyMask  uint32
	NumItems uintptr
}

// Lookup walks the bucket for key and returns its value, or nil.
func (t *OpenHashTable) Lookup(key int32) unsafe.Pointer {
	if t == nil || t.Slots == nil {
		return nil
	}
	idx := uint32(key) & t.KeyMask
	slotPtr := unsafe.Add(unsafe.Pointer(t.Slots), uintptr(idx)*unsafe.Sizeof(OpenHashSlot{}))
	slot := (*OpenHashSlot)(slotPtr)
	for item := slot.First; item != nil; item = item.Next {
		if item.Key == key {
			return item.Value
		}
	}
	return nil
}

// ClosedHashSlot mirrors HLDClosedHashSlot: a slot in the instance-local
// closed-address hash table keyed by interned name index.
type ClosedHashSlot struct {
	NameIdx int32
	Value   unsafe.Pointer
	Key     int32
}

// ClosedHashTable mirrors HLDClosedHashTable.
type ClosedHashTable struct {
	NumSlots uintptr
	NumItems uintptr
	KeyMask  uint32
	reserved uint32
	Slots    *ClosedHashSlot
}

// Lookup returns a pointer to the value slot for nameIdx, or nil if absent.
func (t *ClosedHashTable) Lookup(nameIdx int32) unsafe.Pointer {
	if t == nil || t.Slots == nil {
		return nil
	}
	idx := uint32(nameIdx) & t.KeyMask
	for {
		slotPtr := unsafe.Add(unsafe.Pointer(t.Slots), uintptr(idx)*unsafe.Sizeof(ClosedHashSlot{}))
		slot := (*ClosedHashSlot)(slotPtr)
		if slot.Key == nameIdx {
			return slot.Value
		}
		if slot.Key == 0 && slot.Value == nil {
			return nil
		}
		idx = (idx + 1) & t.KeyMask
	}
}

// dsMapWrapper mirrors the {key; value;} pair a GML DS-map's hash table
// stores as each HLDOpenHashItem's value, per original_source's
// SaveManLoadData.
type dsMapWrapper struct {
	Key   Primitive
	Value Primitive
}

// ForEachEntry walks every key/value pair stored in a DS-map's backing
// hash table, slot by slot, matching SaveManLoadData's direct walk instead
// of repeated key-by-key API_dsMapFindValue calls.
func (t *OpenHashTable) ForEachEntry(fn func(key, value Primitive)) {
	if t == nil || t.Slots == nil {
		return
	}
	left := t.NumItems
	var slotIdx uint32
	for left > 0 {
		slotPtr := unsafe.Add(unsafe.Pointer(t.Slots), uintptr(slotIdx)*unsafe.Sizeof(OpenHashSlot{}))
		slot := (*OpenHashSlot)(slotPtr)
		for item := slot.First; item != nil && left > 0; item = item.Next {
			w := (*dsMapWrapper)(item.Value)
			fn(w.Key, w.Value)
			left--
		}
		slotIdx++
	}
}

// PrimitivePointerCopy mirrors the host's duplication hook for pointer-type
// primitives (spec.md §6 "Host ABI (inbound)", §9 "refcount on copy"):
// copying a string or array primitive must bump its refcount rather than
// alias the payload without accounting for the new owner.
func PrimitivePointerCopy(dest, src *Primitive) {
	if dest == nil || src == nil {
		return
	}
	*dest = *src
	switch src.Type {
	case PrimitiveString:
		if ps := (*StringPayload)(dest.Value.AsPtr()); ps != nil {
			ps.IncRef()
		}
	case PrimitiveArray:
		if pa := (*ArrayPayload)(dest.Value.AsPtr()); pa != nil {
			pa.Refs++
		}
	}
}

// EventSubscribers mirrors HLDEventSubscribers: the host's per-event-number
// list of object indices the dispatcher bothers checking. The MRE
// over-allocates these (spec.md §4.4 "Subscription masking").
type EventSubscribers struct {
	Objects  *int32
	NumSlots uint32
}

// Room mirrors the subset of HLDRoom fields the instance manager needs to
// walk the current room's instance list.
type Room struct {
	opaque0      [8]byte
	Self         *Room
	opaque1      [0x68 - 0x10]byte
	Views        [8]unsafe.Pointer
	opaque2      [0x80 - 0x6c]byte
	InstanceFirst *Instance
	InstanceLast  *Instance
	NumInstances  int32
	opaque3       [0x104 - 0x8c]byte
	Name          *byte
}
