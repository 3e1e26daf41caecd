// Package aercore is the process-wide singleton tying together the
// stage machine, mod loader, object tree, event-trap engine, instance
// manager, save hook, and config reader into the single engine the host
// ABI entry points in cmd/aergo drive (spec.md §1, §5, §9 "Global
// mutable state").
//
// Grounded on the teacher's game.NullEngine: a single struct owning
// every subsystem, exposing named lifecycle methods
// rather than a generic dispatch table.
package aercore

import (
	"fmt"
	"unsafe"

	"go.uber.org/zap"

	"github.com/foxbud/aergo/internal/aerconf"
	"github.com/foxbud/aergo/internal/aererr"
	"github.com/foxbud/aergo/internal/aerlog"
	"github.com/foxbud/aergo/internal/aersave"
	"github.com/foxbud/aergo/internal/eventtrap"
	"github.com/foxbud/aergo/internal/hld"
	"github.com/foxbud/aergo/internal/instance"
	"github.com/foxbud/aergo/internal/modman"
	"github.com/foxbud/aergo/internal/objtree"
	"github.com/foxbud/aergo/internal/stage"
)

// Engine owns every MRE subsystem for the lifetime of one host process.
// There is exactly one per loaded shared library (spec.md §9).
type Engine struct {
	Stage     *stage.Machine
	Mods      *modman.Manager
	Tree      *objtree.Tree
	Traps     *eventtrap.Engine
	Instances *instance.Manager
	Save      *aersave.Store
	Conf      *aerconf.Reader
	Log       *aerlog.Logger

	refs  *hld.VMRefs
	funcs *hld.VMFuncs

	// trampoline is the C function pointer the host calls for every
	// trapped event, supplied by cmd/aergo once at init (it must live in
	// package main, since cgo's //export only works there). allocEventSlot
	// installs it into the VM's per-object event-listener array.
	trampoline unsafe.Pointer

	// capturedOrig stashes the VM's pre-existing handler function pointer
	// for each EventKey entrapment installs the trampoline over, so
	// captureOrigHandler can hand it back as a HandlerFunc (spec.md §3
	// "Trap", §4.4 "Entrapment").
	capturedOrig map[eventtrap.EventKey]unsafe.Pointer

	// currentEvent is the process-wide current-event register
	// (spec.md §3 "Current-event register"). Recursion through nested
	// events saves and restores it on the Go call stack via Event's
	// defer, matching the spec's "stacking is implied" note.
	currentEvent eventtrap.EventKey
}

// SetTrampoline records the host-callable C function pointer cmd/aergo's
// exported trampoline resolves to. Must be called before Init, since
// allocEventSlot installs it on first entrapment.
func (e *Engine) SetTrampoline(fn unsafe.Pointer) {
	e.trampoline = fn
}

// CurrentEvent returns the EventKey the trampoline is currently
// dispatching, for listeners that need to know why they were called.
func (e *Engine) CurrentEvent() eventtrap.EventKey {
	return e.currentEvent
}

// New constructs an Engine with every subsystem wired together, reading
// config from confPath. The caller (cmd/aergo's exported init) still owns
// calling Init once the host hands over VMRefs/VMFuncs.
func New(confPath string) (*Engine, error) {
	conf, err := aerconf.New(confPath)
	if err != nil {
		return nil, err
	}

	mods := modman.New()
	logger, err := aerlog.New(aerlog.Config{
		Level:  "info",
		Format: "console",
		Strict: conf.PromoteUnhandledErrors(),
	}, mods.CurrentName)
	if err != nil {
		return nil, fmt.Errorf("aercore: building logger: %w", err)
	}

	tree := objtree.New()

	e := &Engine{
		Stage:        stage.New(),
		Mods:         mods,
		Tree:         tree,
		Save:         aersave.New(),
		Conf:         conf,
		Log:          logger,
		capturedOrig: make(map[eventtrap.EventKey]unsafe.Pointer),
	}
	e.Instances = instance.New(tree, e.resolveInstance)
	e.Traps = eventtrap.New(eventtrap.Deps{
		Tree:                tree,
		DefaultFactory:      e.defaultEventHandler,
		CaptureOrig:         e.captureOrigHandler,
		AllocSlot:           e.allocEventSlot,
		SubscriberWriteback: e.subscriberWriteback,
		OnUnhandled:         e.onUnhandledListenerError,
	})
	return e, nil
}

// Init receives the host's global pointer/function tables, loads every
// mod named in config, and advances the stage machine through the
// registration stages up to listener-reg (spec.md §4.1, §4.2, §6).
func (e *Engine) Init(refs *hld.VMRefs, funcs *hld.VMFuncs) error {
	if refs == nil || funcs == nil {
		return aererr.New("EngineInit", aererr.NullArg, "host supplied nil VMRefs/VMFuncs")
	}
	e.refs = refs
	e.funcs = funcs

	if err := e.Mods.LoadAll(e.Conf.Mods()); err != nil {
		return err
	}
	e.Mods.RunConstructors()

	if err := e.Stage.Advance(stage.SpriteReg); err != nil {
		return err
	}
	e.runRegisterSprites()

	if err := e.Stage.Advance(stage.FontReg); err != nil {
		return err
	}
	e.runRegisterFonts()

	if err := e.Stage.Advance(stage.ObjectReg); err != nil {
		return err
	}
	e.runRegisterObjects()

	if err := e.Stage.Advance(stage.ListenerReg); err != nil {
		return err
	}
	e.Traps.OpenListenerReg()
	e.runRegisterObjectListeners()
	return nil
}

// OpenAction closes listener-reg and enters the per-frame action/draw
// alternation (spec.md §4.1). Call once, after every mod's
// RegisterObjectListeners has run.
func (e *Engine) OpenAction() error {
	e.Traps.CloseListenerReg()
	return e.Stage.Advance(stage.Action)
}

func (e *Engine) runRegisterSprites() {
	for _, mod := range e.snapshotMods() {
		if mod.Defn.RegisterSprites == nil {
			continue
		}
		e.Mods.PushContext(mod.Index)
		mod.Defn.RegisterSprites()
		e.Mods.PopContext()
	}
}

func (e *Engine) runRegisterFonts() {
	for _, mod := range e.snapshotMods() {
		if mod.Defn.RegisterFonts == nil {
			continue
		}
		e.Mods.PushContext(mod.Index)
		mod.Defn.RegisterFonts()
		e.Mods.PopContext()
	}
}

func (e *Engine) runRegisterObjects() {
	for _, mod := range e.snapshotMods() {
		if mod.Defn.RegisterObjects == nil {
			continue
		}
		e.Mods.PushContext(mod.Index)
		mod.Defn.RegisterObjects()
		e.Mods.PopContext()
	}
}

func (e *Engine) runRegisterObjectListeners() {
	for _, mod := range e.snapshotMods() {
		if mod.Defn.RegisterObjectListeners == nil {
			continue
		}
		e.Mods.PushContext(mod.Index)
		mod.Defn.RegisterObjectListeners()
		e.Mods.PopContext()
	}
}

func (e *Engine) snapshotMods() []*modman.Mod {
	n := e.Mods.NumMods()
	out := make([]*modman.Mod, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, e.Mods.Mod(int32(i)))
	}
	return out
}

// Step runs one game-step: dispatches every mod's GameStep listener and
// then prunes orphaned mod-locals (spec.md §4.5 "Orphan pruning").
func (e *Engine) Step() {
	e.Mods.ExecuteGameStepListeners()
	e.Instances.PruneOrphans()
}

// Event is the engine's half of the universal trampoline: it builds the
// EventKey from the current-event register fields the host supplied and
// runs Dispatch, applying the create-event cancellation rule from
// spec.md §4.4 "Dispatch" step 5. destroyFn is called to remove the
// instance without firing its destroy event when a create listener
// cancels. The returned bool is the outermost dispatch result (true
// unless a listener cancelled and nothing downstream overrode it, and
// true when no trap exists for the key); cmd/aergo's
// aergo_dispatch_event ignores it.
func (e *Engine) Event(objIdx int32, eventType hld.EventType, eventNum, targetInstID, otherInstID int32, destroyFn func(instID int32)) bool {
	key := eventtrap.EventKey{Type: eventType, Num: eventNum, ObjIdx: objIdx}

	saved := e.currentEvent
	e.currentEvent = key
	defer func() { e.currentEvent = saved }()

	result, handled := e.Traps.Dispatch(key, targetInstID, otherInstID)
	if !handled {
		return true
	}
	if !result && eventType == hld.EventCreate && destroyFn != nil {
		destroyFn(targetInstID)
	}
	return result
}

// SetCurrentEvent updates the current-event register directly, for
// cmd/aergo's aergo_event hook (AERHookEvent's real shape: it only records
// which event is about to run, taking no instance parameters — dispatch
// itself happens later when the host calls through the installed
// trampoline).
func (e *Engine) SetCurrentEvent(objIdx int32, eventType hld.EventType, eventNum int32) {
	e.currentEvent = eventtrap.EventKey{Type: eventType, Num: eventNum, ObjIdx: objIdx}
}

// DestroyInstanceForCancel silently removes an instance without running its
// destroy event, the create-cancellation rule's VM-side effect
// (event.c's CommonEventListener: "actionInstanceDestroy(target, other, -1,
// false)").
func (e *Engine) DestroyInstanceForCancel(targetInstID int32) {
	if e.refs == nil || e.funcs == nil {
		return
	}
	target := e.refs.LookupInstance(targetInstID)
	if target == nil {
		return
	}
	e.funcs.CallInstanceDestroy(target, nil, -1, false)
}

func (e *Engine) resolveInstance(instID int32) bool {
	if e.refs == nil {
		return false
	}
	return e.refs.LookupInstance(instID) != nil
}

// defaultEventHandler builds the synthetic "perform default" handler a
// newly entrapped EventKey falls back to when the VM's slot was empty:
// forward to the parent object's same event, except that a normal draw on
// an instance with a sprite calls the VM's draw-self instead
// (spec.md §3 "Trap", §4.4 "Entrapment").
func (e *Engine) defaultEventHandler(key eventtrap.EventKey) eventtrap.HandlerFunc {
	return func(targetInstID, otherInstID int32) bool {
		if key.Type == hld.EventDraw && key.Num == int32(hld.DrawNormal) {
			if target := e.refs.LookupInstance(targetInstID); target != nil && target.SpriteIndex >= 0 {
				e.funcs.CallDrawSelf(target)
				return true
			}
		}

		parent := e.Tree.ParentOf(key.ObjIdx)
		if parent >= 0 {
			parentKey := eventtrap.EventKey{Type: key.Type, Num: key.Num, ObjIdx: parent}
			if result, handled := e.Traps.Dispatch(parentKey, targetInstID, otherInstID); handled {
				return result
			}
		}
		// No parent handler exists either; "perform default" is satisfied
		// by doing nothing further (event.c's PerformDefaultEvent: a
		// missing parentIndex is simply not forwarded).
		return true
	}
}

// wrapVMHandler adapts a raw VM function pointer captured at entrapment
// time into a HandlerFunc. Falling through to a captured original handler
// always reports success: event.c's EventTrapIterNext calls the real
// origListener as void and never reads a return from it
// ("trap->origListener(target, other);" — result keeps its initialized
// default of true), so there is nothing meaningful to derive from the call.
func (e *Engine) wrapVMHandler(fn unsafe.Pointer) eventtrap.HandlerFunc {
	return func(targetInstID, otherInstID int32) bool {
		target := e.refs.LookupInstance(targetInstID)
		other := e.refs.LookupInstance(otherInstID)
		hld.CallEventHandler(fn, target, other)
		return true
	}
}

// captureOrigHandler reports whether the VM already had a handler
// installed for key at the instant of first attachment (the function
// pointer EntrapEvent's companion allocEventSlot call returned), wrapping
// it so the trap's chain can fall through to the VM's own behavior.
func (e *Engine) captureOrigHandler(key eventtrap.EventKey) (eventtrap.HandlerFunc, bool) {
	fn, ok := e.capturedOrig[key]
	if !ok || fn == nil {
		return nil, false
	}
	return e.wrapVMHandler(fn), true
}

// allocEventSlot resizes key's object's per-event-type listener array (if
// needed) and installs the MRE's universal trampoline, stashing whatever
// handler previously occupied that slot for captureOrigHandler to pick up
// (spec.md §4.4 "Entrapment").
func (e *Engine) allocEventSlot(key eventtrap.EventKey) error {
	if e.refs == nil || e.trampoline == nil {
		return aererr.New("AllocEventSlot", aererr.NullArg, "engine has no live VM refs or trampoline")
	}
	obj := e.refs.LookupObject(key.ObjIdx)
	if obj == nil {
		return aererr.New("AllocEventSlot", aererr.FailedLookup, "no object for index %d", key.ObjIdx)
	}

	eventNum := key.Num
	if key.Type == hld.EventCollision {
		// Collision sub-events are keyed by the other object's index, not a
		// small fixed enumeration. SubNumMax's Collision case gives the
		// host's live object count, but the result is discarded: EntrapEvent
		// below grows the listener array only to eventNum+1 entries.
		_ = eventtrap.SubNumMax(key.Type, e.refs.NumObjects())
	}

	orig, err := hld.EntrapEvent(obj, key.Type, eventNum, e.trampoline)
	if err != nil {
		return aererr.New("AllocEventSlot", aererr.FailedLookup, "entrapping %s: %v", key, err)
	}
	e.capturedOrig[key] = orig
	return nil
}

func (e *Engine) subscriberWriteback(key eventtrap.EventKey, objIdxs []int32) {
	if e.refs == nil {
		return
	}
	_ = e.refs.InstallEventSubscribers(key.Type, key.Num, objIdxs)
}

// LoadModSaveData decodes the host's DS map at mapID into the in-memory
// save store and runs every mod's game-load listener, in that order
// (core.c's AERHookLoadData / save.c's SaveManLoadData). The host's
// "mod" key holds a nested DS map keyed by mod name, each of whose values
// is itself a DS map of the mod's saved key/value entries — a two-level
// structure walked by DS-map id lookup (APIDsMapFindValue, for the two
// named levels) plus a direct hash-slot walk (for the unordered
// leaf-level entries), exactly mirroring SaveManLoadData.
func (e *Engine) LoadModSaveData(mapID int32) error {
	if e.refs == nil || e.funcs == nil {
		return aererr.New("LoadModSaveData", aererr.NullArg, "engine has no live VM refs/funcs")
	}

	modMaps := e.funcs.DsMapFindValue(float64(mapID), "mod")
	if modMaps.Type != hld.PrimitiveReal {
		e.Save.Clear()
		return nil
	}

	perMod := make(map[string]any, e.Mods.NumMods())
	for i := 0; i < e.Mods.NumMods(); i++ {
		mod := e.Mods.Mod(int32(i))
		if mod == nil {
			continue
		}
		subMap := e.funcs.DsMapFindValue(modMaps.Value.AsReal(), mod.Name)
		if subMap.Type == hld.PrimitiveUndefined {
			continue
		}
		entries := make(map[string]any)
		e.refs.ForEachModMapEntry(subMap.Value.AsReal(), func(key string, value hld.Primitive) {
			switch value.Type {
			case hld.PrimitiveReal:
				entries[key] = value.Value.AsReal()
			case hld.PrimitiveString:
				if s, ok := hld.PrimitiveAsString(value); ok {
					entries[key] = s
				}
			}
		})
		perMod[mod.Name] = entries
	}

	if err := e.Save.LoadFromSerializationMap(map[string]any{"mod": perMod}); err != nil {
		return err
	}
	e.Mods.ExecuteGameLoadListeners(mapID)
	return nil
}

// SaveModSaveData runs every mod's game-save listener and then flushes the
// in-memory save store back into the host's DS map at mapID (core.c's
// AERHookSaveData / save.c's SaveManSaveData's counterpart). Each entry
// is written through APIDsMapSet as a dotted "<modName>.<key>" pair
// directly on mapID: SaveManSaveData's own body (which would create and
// nest fresh per-mod DS maps under "mod", mirroring the load side) was
// not recovered from original_source, so nested-map creation has no
// grounded ABI to follow; this flat encoding reuses only the DsMapSet
// primitive the review named and needs no unconfirmed "create a new
// DS map" host function (see DESIGN.md).
func (e *Engine) SaveModSaveData(mapID int32) error {
	if e.refs == nil || e.funcs == nil {
		return aererr.New("SaveModSaveData", aererr.NullArg, "engine has no live VM refs/funcs")
	}

	e.Mods.ExecuteGameSaveListeners(mapID)

	built := e.Save.BuildSerializationMap()
	for modName, rawEntries := range built {
		entries, ok := rawEntries.(map[string]any)
		if !ok {
			continue
		}
		for key, raw := range entries {
			dotted := modName + "." + key
			switch v := raw.(type) {
			case float64:
				e.funcs.DsMapSet(float64(mapID), dotted, hld.NewRealPrimitive(v))
			case string:
				e.funcs.DsMapSet(float64(mapID), dotted, hld.NewStringPrimitive(v))
			}
		}
	}
	return nil
}

// DrawSetAlpha sets the VM's current global draw alpha (pkg/aer/draw.go's
// SetAlpha pass-through).
func (e *Engine) DrawSetAlpha(alpha float32) {
	e.funcs.CallDrawSetAlpha(alpha)
}

// DrawGetAlpha reads the VM's current global draw alpha (pkg/aer/draw.go's
// GetAlpha pass-through).
func (e *Engine) DrawGetAlpha() float32 {
	return e.funcs.CallDrawGetAlpha()
}

// RegisterSprite registers a new sprite with the VM and returns its index
// (pkg/aer/sprite.go's RegisterSprite pass-through).
func (e *Engine) RegisterSprite(name string) int32 {
	return e.funcs.CallSpriteAdd(name)
}

// RegisterFont registers a new font with the VM and returns its index
// (pkg/aer/font.go's RegisterFont pass-through).
func (e *Engine) RegisterFont(name string) int32 {
	return e.funcs.CallFontAdd(name)
}

// RoomGoto transitions the VM to roomIdx (pkg/aer/room.go's RoomGoto
// pass-through).
func (e *Engine) RoomGoto(roomIdx int32) {
	e.funcs.CallRoomGoto(roomIdx)
}

// PlaySound plays sampleIdx, looping if requested (pkg/aer/audio.go's
// PlaySound pass-through).
func (e *Engine) PlaySound(sampleIdx int32, loop bool) int32 {
	return e.funcs.CallAudioPlaySound(sampleIdx, loop)
}

// CreateAudioStream streams the file at path and returns its sample index
// (pkg/aer/audio.go's CreateAudioStream pass-through).
func (e *Engine) CreateAudioStream(path string) int32 {
	return e.funcs.CallAudioCreateStream(path)
}

// MousePos returns the host's current mouse position
// (pkg/aer/input.go's MousePos pass-through). These fields are read
// directly rather than through a VM function call: the host exposes the
// cursor position as a pair of plain globals, not an accessor.
func (e *Engine) MousePos() (x, y int32) {
	if e.refs == nil || e.refs.MousePosX == nil || e.refs.MousePosY == nil {
		return 0, 0
	}
	return *e.refs.MousePosX, *e.refs.MousePosY
}

func (e *Engine) onUnhandledListenerError(modName string, key eventtrap.EventKey, err error) {
	e.Log.ErrorLine("EventDispatch", "unhandled error from mod listener",
		zap.String("mod", modName), zap.String("event", key.String()), zap.Error(err))
	e.Log.PromoteIfStrict("EventDispatch", err)
}

// Shutdown runs every mod's destructor in reverse load order and flushes
// the logger.
func (e *Engine) Shutdown() {
	e.Mods.Unload()
	_ = e.Log.Sync()
}
