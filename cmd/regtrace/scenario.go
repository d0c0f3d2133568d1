package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/halcyon-emu/halcyon/jit/arm"
	"github.com/halcyon-emu/halcyon/jit/regcache"
	"github.com/halcyon-emu/halcyon/log"
	"github.com/halcyon-emu/halcyon/mips"
)

// Step is one cache operation of a replay scenario.
type Step struct {
	Op    string   `json:"op"`
	Reg   string   `json:"reg,omitempty"`
	Base  int      `json:"base,omitempty"`
	Size  int      `json:"size,omitempty"`
	Lanes []int    `json:"lanes,omitempty"`
	Flags []string `json:"flags,omitempty"`
}

// Scenario is a JSON-described sequence of cache operations, replayed against
// a fresh cache with a recording emitter.
type Scenario struct {
	Name     string `json:"name,omitempty"`
	WideSIMD bool   `json:"wideSimd"`
	Steps    []Step `json:"steps"`
}

// Progress is the cumulative memory traffic after each step; the chart plots
// it.
type Progress struct {
	Label  string
	Loads  int
	Stores int
}

// Result is everything a replay produced.
type Result struct {
	Ops      []arm.Op
	Stats    regcache.Stats
	Progress []Progress
	Cache    *regcache.FPURegCache
}

// LoadScenario reads and decodes a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sc Scenario
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("decode scenario %s: %w", path, err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}
	return &sc, nil
}

func parseFlags(names []string) (regcache.MapFlags, error) {
	var flags regcache.MapFlags
	for _, name := range names {
		switch name {
		case "dirty":
			flags |= regcache.MapDirty
		case "noinit":
			flags |= regcache.MapNoInit
		default:
			return 0, fmt.Errorf("unknown map flag %q", name)
		}
	}
	return flags, nil
}

// Replay runs the scenario. The cache's internal cross-checks run after every
// step so a defect is reported at the step that introduced it, not at the end.
func Replay(sc *Scenario) (*Result, error) {
	rec := arm.NewOpRecorder()
	c := regcache.NewFPURegCache(rec, sc.WideSIMD)
	res := &Result{Cache: c}

	for i, step := range sc.Steps {
		if err := applyStep(c, step); err != nil {
			return res, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
		if err := c.Err(); err != nil {
			return res, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
		if err := c.Validate(); err != nil {
			return res, fmt.Errorf("step %d (%s): state check: %w", i, step.Op, err)
		}
		res.Progress = append(res.Progress, Progress{
			Label:  fmt.Sprintf("%d:%s", i, step.Op),
			Loads:  rec.LoadCount(),
			Stores: rec.StoreCount(),
		})
	}
	res.Ops = rec.Ops()
	res.Stats = c.Stats()
	log.Debug(log.Replay, "replay done", "steps", len(sc.Steps), "loads", rec.LoadCount(), "stores", rec.StoreCount())
	return res, nil
}

func applyStep(c *regcache.FPURegCache, step Step) error {
	switch step.Op {
	case "map":
		r, flags, err := stepRegAndFlags(step)
		if err != nil {
			return err
		}
		c.MapReg(r, flags)
	case "flush":
		r, err := stepReg(step)
		if err != nil {
			return err
		}
		c.FlushR(r)
	case "discard":
		r, err := stepReg(step)
		if err != nil {
			return err
		}
		c.DiscardR(r)
	case "spillLock":
		r, err := stepReg(step)
		if err != nil {
			return err
		}
		c.SpillLock(r)
	case "qmap":
		sz := mips.VectorSize(step.Size)
		if !sz.Valid() {
			return fmt.Errorf("bad vector size %d", step.Size)
		}
		flags, err := parseFlags(step.Flags)
		if err != nil {
			return err
		}
		c.QMapReg(step.Base, sz, flags)
	case "qmapLanes":
		flags, err := parseFlags(step.Flags)
		if err != nil {
			return err
		}
		c.QMapRegs(step.Lanes, flags)
	case "temp":
		c.GetTempR()
	case "endInstr":
		c.ReleaseSpillLocksAndDiscardTemps()
	case "flushAll":
		c.FlushAll()
	case "start":
		c.Start()
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
	return nil
}

func stepReg(step Step) (mips.Reg, error) {
	r, err := mips.ParseReg(step.Reg)
	if err != nil {
		return mips.InvalidReg, err
	}
	return r, nil
}

func stepRegAndFlags(step Step) (mips.Reg, regcache.MapFlags, error) {
	r, err := stepReg(step)
	if err != nil {
		return mips.InvalidReg, 0, err
	}
	flags, err := parseFlags(step.Flags)
	if err != nil {
		return mips.InvalidReg, 0, err
	}
	return r, flags, nil
}
