package engine

import (
	"fmt"
	"sync/atomic"

	"github.com/herrausgefuchst/grainmother/pkg/midiio"
	"github.com/herrausgefuchst/grainmother/pkg/param"
	"github.com/herrausgefuchst/grainmother/pkg/rtlog"
	"github.com/herrausgefuchst/grainmother/pkg/stream"
	"github.com/herrausgefuchst/grainmother/pkg/ui"
)

// Config holds the audio format the engine runs at.
type Config struct {
	SampleRate float64
	BlockSize  int
}

// Engine is the top-level context: parameter groups, UI elements, the
// effect chain, the streaming source and the scheduler, constructed once
// at startup and owned by the audio callback. There are no ambient
// globals; everything the callback touches hangs off this struct.
type Engine struct {
	cfg    Config
	params *param.Group
	chain  *Chain
	source *stream.Source
	sched  *Scheduler
	diag   *rtlog.Ring
	queues []*midiio.Queue

	pots    []*ui.Potentiometer
	buttons []*ui.Button
	ccMap   map[uint8]*ui.Potentiometer
	noteMap map[uint8]*Effect

	// all groups whose ramps tick on the audio thread
	rampGroups []*param.Group

	onSave    []func()
	onLoad    []func()
	onProgram []func(program uint8)

	blocks atomic.Uint64
}

// New builds an engine around an effect chain and a streaming source.
// queue may be nil when no MIDI transport is connected.
func New(cfg Config, chain *Chain, source *stream.Source, diag *rtlog.Ring, queue *midiio.Queue) (*Engine, error) {
	if cfg.SampleRate <= 0 || cfg.BlockSize <= 0 {
		return nil, fmt.Errorf("engine config: sample rate %.0f, block size %d", cfg.SampleRate, cfg.BlockSize)
	}
	params := param.NewGroup("engine")
	params.OnMiss(func(id string) {
		diag.Push(rtlog.Record{Kind: rtlog.KindLookupMiss, Where: "engine/" + id})
	})

	e := &Engine{
		cfg:     cfg,
		params:  params,
		chain:   chain,
		source:  source,
		sched:   NewScheduler(),
		diag:    diag,
		ccMap:   make(map[uint8]*ui.Potentiometer),
		noteMap: make(map[uint8]*Effect),
	}
	if queue != nil {
		e.queues = append(e.queues, queue)
	}
	e.rampGroups = append(e.rampGroups, params)
	for _, fx := range chain.Effects() {
		e.rampGroups = append(e.rampGroups, fx.Params())
	}
	return e, nil
}

func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) Params() *param.Group { return e.params }

func (e *Engine) Chain() *Chain { return e.chain }

func (e *Engine) Source() *stream.Source { return e.source }

func (e *Engine) Scheduler() *Scheduler { return e.sched }

func (e *Engine) Diagnostics() *rtlog.Ring { return e.diag }

// AddPot registers a potentiometer and optionally binds it to a MIDI
// controller number (cc < 0 leaves it unbound).
func (e *Engine) AddPot(p *ui.Potentiometer, cc int) {
	e.pots = append(e.pots, p)
	if cc >= 0 {
		e.ccMap[uint8(cc)] = p
	}
}

// AddControlQueue registers another control event source. Each queue has
// exactly one producer goroutine; the audio thread is the sole consumer
// of all of them. Setup-time only.
func (e *Engine) AddControlQueue(q *midiio.Queue) {
	e.queues = append(e.queues, q)
}

// BindNote routes a MIDI note-on to an effect's engage/bypass toggle, so
// footswitch-style toggles arrive through the control queue like every
// other asynchronous input.
func (e *Engine) BindNote(note uint8, fx *Effect) {
	e.noteMap[note] = fx
}

// AddButton registers a button.
func (e *Engine) AddButton(b *ui.Button) {
	e.buttons = append(e.buttons, b)
}

func (e *Engine) Pots() []*ui.Potentiometer { return e.pots }

func (e *Engine) Buttons() []*ui.Button { return e.buttons }

// OnSaveMessage registers a hook run when collaborators should persist
// their state. Hooks run on the caller's goroutine, not the audio thread.
func (e *Engine) OnSaveMessage(fn func()) {
	e.onSave = append(e.onSave, fn)
}

// OnLoadMessage registers a hook run when persisted state was restored.
func (e *Engine) OnLoadMessage(fn func()) {
	e.onLoad = append(e.onLoad, fn)
}

// OnProgramChange registers a hook for incoming MIDI program changes.
// It fires on the audio thread and must not block or allocate.
func (e *Engine) OnProgramChange(fn func(program uint8)) {
	e.onProgram = append(e.onProgram, fn)
}

// NotifySave runs all save hooks.
func (e *Engine) NotifySave() {
	for _, fn := range e.onSave {
		fn()
	}
}

// NotifyLoad runs all load hooks.
func (e *Engine) NotifyLoad() {
	for _, fn := range e.onLoad {
		fn()
	}
}

// Blocks returns how many audio blocks the engine has processed.
func (e *Engine) Blocks() uint64 { return e.blocks.Load() }

// ProcessBlock produces one block of audio: drain the control queue,
// tick parameter ramps at the sample stride, pull from the streaming
// source, run the effect chain, then advance the scheduler. This is the
// audio thread; nothing here blocks or allocates.
func (e *Engine) ProcessBlock(left, right []float32) {
	for _, q := range e.queues {
		q.Drain(e.applyControl)
	}

	n := len(left)
	for i := 0; i < n; i += RampStride {
		for _, g := range e.rampGroups {
			g.ProcessRamps()
		}
	}

	e.source.ReadBlock(left[:n], right[:n])
	e.chain.ProcessStereo(left[:n], right[:n])

	e.blocks.Add(1)
	e.sched.Tick()
}

func (e *Engine) applyControl(ev midiio.Event) {
	switch ev.Kind {
	case midiio.KindControlChange:
		if p, ok := e.ccMap[ev.Controller]; ok {
			p.SetNewMIDIMessage(ev.Value)
		}
	case midiio.KindProgramChange:
		for _, fn := range e.onProgram {
			fn(ev.Program)
		}
	case midiio.KindNote:
		if fx, ok := e.noteMap[ev.Note]; ok && ev.On {
			fx.Toggle()
		}
	}
}
