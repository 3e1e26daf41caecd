// Command aergoharness drives the MRE's internal packages directly
// against a small in-memory fixture of objects and instances, without a
// live game host. It exists for mod authors to exercise listener
// registration, event dispatch, mod-locals, save round-trips, and config
// reads while developing a mod .so, before pointing it at a real host.
//
// Grounded on the teacher's cmd/server/main.go: flag-parsed config path,
// zap logger built up front, signal-driven graceful shutdown loop. The
// harness drops the teacher's gRPC/database/session layers entirely —
// the MRE has no network surface (SPEC_FULL.md's dropped-dependency
// list) — and replaces the request loop with a fixed-rate step/event
// simulation over the fixture table.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/foxbud/aergo/internal/aerconf"
	"github.com/foxbud/aergo/internal/aerlog"
	"github.com/foxbud/aergo/internal/aersave"
	"github.com/foxbud/aergo/internal/eventtrap"
	"github.com/foxbud/aergo/internal/hld"
	"github.com/foxbud/aergo/internal/instance"
	"github.com/foxbud/aergo/internal/modman"
	"github.com/foxbud/aergo/internal/objtree"
	"github.com/foxbud/aergo/internal/stage"
)

var (
	confPath = flag.String("conf", "aer/conf.toml", "path to aer/conf.toml")
	ticks    = flag.Int("ticks", 5, "number of simulated game steps to run before exiting")
	interval = flag.Duration("interval", 200*time.Millisecond, "delay between simulated steps")
)

// fixtureObjects is the harness's stand-in object table: objIdx -> parent
// objIdx, -1 for a root object. Mirrors a small enemy hierarchy the way a
// real game might lay one out.
var fixtureObjects = map[int32]int32{
	0: -1, // objEnemyBase
	1: 0,  // objGoblin
	2: 0,  // objBoss
	3: 1,  // objGoblinArcher
}

// fixtureInstances seeds the live-instance set: instID -> objIdx.
var fixtureInstances = map[int32]int32{
	100: 1, // a goblin
	101: 3, // a goblin archer
	102: 2, // the boss
}

// harness wires the same subsystems internal/aercore.Engine does, but
// backs instance resolution with the in-memory fixture above instead of
// hld.VMRefs, so it runs without cgo or a live host.
type harness struct {
	stage *stage.Machine
	mods  *modman.Manager
	tree  *objtree.Tree
	traps *eventtrap.Engine
	insts *instance.Manager
	save  *aersave.Store
	conf  *aerconf.Reader
	log   *aerlog.Logger

	live map[int32]int32 // instID -> objIdx, mutated by simulated destroy
}

func newHarness(conf *aerconf.Reader) (*harness, error) {
	mods := modman.New()
	logger, err := aerlog.New(aerlog.Config{
		Level:  "debug",
		Format: "console",
		Strict: conf.PromoteUnhandledErrors(),
	}, mods.CurrentName)
	if err != nil {
		return nil, fmt.Errorf("aergoharness: building logger: %w", err)
	}

	tree := objtree.New()
	tree.Build(fixtureObjects)

	live := make(map[int32]int32, len(fixtureInstances))
	for instID, objIdx := range fixtureInstances {
		live[instID] = objIdx
	}

	h := &harness{
		stage: stage.New(),
		mods:  mods,
		tree:  tree,
		save:  aersave.New(),
		conf:  conf,
		log:   logger,
		live:  live,
	}
	h.insts = instance.New(tree, h.resolveInstance)
	h.traps = eventtrap.New(eventtrap.Deps{
		Tree:           tree,
		DefaultFactory: h.defaultEventHandler,
		CaptureOrig:    func(eventtrap.EventKey) (eventtrap.HandlerFunc, bool) { return nil, false },
		AllocSlot:      func(eventtrap.EventKey) error { return nil },
		OnUnhandled:    h.onUnhandledListenerError,
	})
	return h, nil
}

func (h *harness) resolveInstance(instID int32) bool {
	_, ok := h.live[instID]
	return ok
}

func (h *harness) defaultEventHandler(key eventtrap.EventKey) eventtrap.HandlerFunc {
	return func(targetInstID, otherInstID int32) bool {
		parent := h.tree.ParentOf(key.ObjIdx)
		if parent < 0 {
			return true
		}
		parentKey := eventtrap.EventKey{Type: key.Type, Num: key.Num, ObjIdx: parent}
		if result, handled := h.traps.Dispatch(parentKey, targetInstID, otherInstID); handled {
			return result
		}
		return true
	}
}

func (h *harness) onUnhandledListenerError(modName string, key eventtrap.EventKey, err error) {
	h.log.ErrorLine("EventDispatch", "unhandled error from mod listener",
		zap.String("mod", modName), zap.String("event", key.String()), zap.Error(err))
	h.log.PromoteIfStrict("EventDispatch", err)
}

// init loads every configured mod and runs registration the same way
// aercore.Engine.Init does (listener-reg is opened before the listener
// callbacks run), then closes listener-reg and enters Action.
func (h *harness) init() error {
	if err := h.mods.LoadAll(h.conf.Mods()); err != nil {
		return err
	}
	h.mods.RunConstructors()

	for _, s := range []stage.Stage{stage.SpriteReg, stage.FontReg, stage.ObjectReg, stage.ListenerReg} {
		if err := h.stage.Advance(s); err != nil {
			return err
		}
		if s == stage.ListenerReg {
			h.traps.OpenListenerReg()
		}
		h.runRegistrationCallbacks(s)
	}
	h.traps.CloseListenerReg()
	return h.stage.Advance(stage.Action)
}

func (h *harness) runRegistrationCallbacks(s stage.Stage) {
	n := h.mods.NumMods()
	for i := 0; i < n; i++ {
		mod := h.mods.Mod(int32(i))
		var fn func()
		switch s {
		case stage.SpriteReg:
			fn = mod.Defn.RegisterSprites
		case stage.FontReg:
			fn = mod.Defn.RegisterFonts
		case stage.ObjectReg:
			fn = mod.Defn.RegisterObjects
		case stage.ListenerReg:
			fn = mod.Defn.RegisterObjectListeners
		}
		if fn == nil {
			continue
		}
		h.mods.PushContext(mod.Index)
		fn()
		h.mods.PopContext()
	}
}

// step dispatches a synthetic Step event against every live instance,
// runs each mod's GameStep listener, then prunes orphaned mod-locals.
// internal/aercore.Engine.Step runs the last two in the same order but
// dispatches no step events itself.
func (h *harness) step() {
	for instID, objIdx := range h.live {
		key := eventtrap.EventKey{Type: hld.EventStep, Num: int32(hld.StepNormal), ObjIdx: objIdx}
		h.traps.Dispatch(key, instID, -1)
	}
	h.mods.ExecuteGameStepListeners()
	pruned := h.insts.PruneOrphans()
	if pruned > 0 {
		h.log.Info("pruned orphaned mod-locals", zap.Int("count", pruned))
	}
}

// destroy removes instID from the live set and dispatches its Destroy
// event, simulating what the host's own destroy action would trigger.
func (h *harness) destroy(instID int32) {
	objIdx, ok := h.live[instID]
	if !ok {
		return
	}
	key := eventtrap.EventKey{Type: hld.EventDestroy, ObjIdx: objIdx}
	h.traps.Dispatch(key, instID, -1)
	delete(h.live, instID)
}

func (h *harness) shutdown() {
	h.mods.Unload()
	_ = h.log.Sync()
}

func main() {
	flag.Parse()

	conf, err := aerconf.New(*confPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "aergoharness: failed to read config: %v\n", err)
		os.Exit(1)
	}

	h, err := newHarness(conf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "aergoharness: %v\n", err)
		os.Exit(1)
	}
	defer h.shutdown()

	if err := h.init(); err != nil {
		h.log.Fatal("Init", "harness initialization failed", zap.Error(err))
	}
	h.log.Info("harness ready", zap.Int("mods", h.mods.NumMods()), zap.Int("liveInstances", len(h.live)))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for i := 0; i < *ticks; i++ {
		select {
		case <-sigCh:
			h.log.Info("interrupted, shutting down early")
			return
		case <-ticker.C:
			h.step()
			h.log.Info("step complete", zap.Int("tick", i+1), zap.Int("liveInstances", len(h.live)))
		}
	}
}
