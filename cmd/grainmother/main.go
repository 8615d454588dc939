// Package main is the entry point for the grainmother CLI.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ebitengine/oto/v3"
	"github.com/spf13/cobra"

	"github.com/herrausgefuchst/grainmother/pkg/engine"
	"github.com/herrausgefuchst/grainmother/pkg/fx"
	"github.com/herrausgefuchst/grainmother/pkg/midiio"
	"github.com/herrausgefuchst/grainmother/pkg/rtlog"
	"github.com/herrausgefuchst/grainmother/pkg/stream"
	"github.com/herrausgefuchst/grainmother/pkg/tui"
	"github.com/herrausgefuchst/grainmother/pkg/ui"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	midiPort     string
	withMIDI     bool
	bufferFrames int
	blockSize    int
	takeover     string
	presetPath   string
	logPath      string
	noTUI        bool
	displayRate  float64
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "grainmother",
	Short: "Real-time audio effects unit",
	Long: `grainmother streams a pre-recorded track through a chain of effect
stages with glitch-free engage/bypass, driven from potentiometers, MIDI
and the terminal UI.

Examples:
  grainmother run loop.wav
  grainmother run loop.wav --midi --midi-port "MPK"
  grainmother info loop.wav`,
	Version: fmt.Sprintf("%s (commit: %s)", version, commit),
}

var runCmd = &cobra.Command{
	Use:   "run <track>",
	Short: "Play a track through the effect chain",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

var infoCmd = &cobra.Command{
	Use:   "info <track>",
	Short: "Print track details",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	runCmd.Flags().BoolVar(&withMIDI, "midi", false, "connect a MIDI input")
	runCmd.Flags().StringVar(&midiPort, "midi-port", "", "MIDI input port (substring match, first port when empty)")
	runCmd.Flags().IntVar(&bufferFrames, "buffer", stream.DefaultBufferFrames, "streaming buffer size in frames per half")
	runCmd.Flags().IntVar(&blockSize, "block", 128, "audio block size in frames")
	runCmd.Flags().StringVar(&takeover, "takeover", "catch", "control takeover policy: catch or jump")
	runCmd.Flags().StringVar(&presetPath, "preset", "grainmother.json", "preset file")
	runCmd.Flags().StringVar(&logPath, "log", "", "log file (default stderr, or discard under the TUI)")
	runCmd.Flags().BoolVar(&noTUI, "no-tui", false, "run headless until interrupted")
	runCmd.Flags().Float64Var(&displayRate, "display-rate", 12, "display refresh rate in Hz")
	rootCmd.AddCommand(runCmd, infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	track, err := stream.OpenTrack(args[0])
	if err != nil {
		return err
	}
	defer track.Close()

	seconds := float64(track.Frames()) / float64(track.SampleRate())
	fmt.Printf("name:        %s\n", track.Name())
	fmt.Printf("frames:      %d\n", track.Frames())
	fmt.Printf("sample rate: %d Hz\n", track.SampleRate())
	fmt.Printf("duration:    %s\n", time.Duration(seconds*float64(time.Second)).Round(time.Millisecond))
	return nil
}

func newLogger() (*rtlog.Logger, error) {
	if logPath != "" {
		return rtlog.NewFileLogger(logPath, "grainmother", rtlog.DefaultFlags)
	}
	if noTUI {
		return rtlog.New(os.Stderr, "grainmother", rtlog.DefaultFlags), nil
	}
	// the TUI owns the terminal
	return rtlog.New(io.Discard, "grainmother", 0), nil
}

func parsePolicy(s string) (ui.Policy, error) {
	switch s {
	case "catch":
		return ui.PolicyCatch, nil
	case "jump":
		return ui.PolicyJump, nil
	default:
		return 0, fmt.Errorf("unknown takeover policy %q (want catch or jump)", s)
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	policy, err := parsePolicy(takeover)
	if err != nil {
		return err
	}

	track, err := stream.OpenTrack(args[0])
	if err != nil {
		return fmt.Errorf("open track: %w", err)
	}

	diag := rtlog.NewRing(256)
	src, err := stream.NewSource(track, bufferFrames, diag)
	if err != nil {
		return err
	}
	if err := src.Prime(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src.Start(ctx, logger)

	cfg := engine.Config{
		SampleRate: float64(track.SampleRate()),
		BlockSize:  blockSize,
	}
	tickRate := cfg.SampleRate / engine.RampStride

	ring := fx.NewRingMod(cfg.SampleRate, tickRate)
	crush := fx.NewCrusher(tickRate)
	chain := engine.NewChain().
		Add(engine.NewEffect("ringmod", ring, ring.Params(), cfg.SampleRate, blockSize)).
		Add(engine.NewEffect("crusher", crush, crush.Params(), cfg.SampleRate, blockSize))

	midiQueue := midiio.NewQueue(128)
	eng, err := engine.New(cfg, chain, src, diag, midiQueue)
	if err != nil {
		return err
	}
	bindControls(eng, chain, policy, diag)

	store := newPresetStore(presetPath, chain)
	eng.OnSaveMessage(func() {
		if err := store.save(); err != nil {
			logger.Error("save preset: %v", err)
		} else {
			logger.Info("preset saved to %s", presetPath)
		}
	})
	if err := store.load(); err == nil {
		eng.NotifyLoad()
		logger.Info("preset loaded from %s", presetPath)
	} else if !os.IsNotExist(err) {
		logger.Warn("load preset: %v", err)
	}

	if withMIDI {
		listener, err := midiio.Connect(midiPort, midiQueue, logger)
		if err != nil {
			logger.Warn("midi unavailable: %v", err)
		} else {
			defer listener.Close()
		}
	}

	// Fan low-rate work out from the audio block clock. The tasks run on
	// the audio thread, so each one only drops a token into a buffered
	// channel; the real work happens on the receiving goroutine.
	frames := make(chan struct{}, 1)
	if err := eng.Scheduler().Add("display", cfg.SampleRate, blockSize, displayRate, func() {
		select {
		case frames <- struct{}{}:
		default:
		}
	}); err != nil {
		return err
	}
	diagFrames := make(chan struct{}, 1)
	if err := eng.Scheduler().Add("diagnostics", cfg.SampleRate, blockSize, 2, func() {
		select {
		case diagFrames <- struct{}{}:
		default:
		}
	}); err != nil {
		return err
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-diagFrames:
				diag.Drain(logger)
			}
		}
	}()

	octx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   track.SampleRate(),
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return fmt.Errorf("audio output: %w", err)
	}
	<-ready

	player := octx.NewPlayer(engine.NewAudioReader(eng))
	player.Play()
	defer player.Close()
	logger.Info("playing %s at %d Hz, block %d", track.Name(), track.SampleRate(), blockSize)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	if noTUI {
		<-sigCh
		eng.NotifySave()
		return nil
	}

	uiQueue := midiio.NewQueue(32)
	eng.AddControlQueue(uiQueue)

	model := tui.New(func() tui.Snapshot {
		return snapshot(eng)
	}, tui.Controls{
		ToggleEffect: func(i int) {
			uiQueue.Push(midiio.Event{Kind: midiio.KindNote, Note: uint8(60 + i), On: true})
		},
		Save: eng.NotifySave,
	}, frames)

	prog := tea.NewProgram(model, tea.WithAltScreen())
	go func() {
		<-sigCh
		prog.Quit()
	}()
	if _, err := prog.Run(); err != nil {
		return err
	}
	eng.NotifySave()
	return nil
}

// bindControls builds one potentiometer per parameter, numbered in group
// order so pot N always maps to parameter N, with MIDI CCs from 21 up.
// Note 60+i toggles effect i, for footswitches and the TUI alike.
func bindControls(eng *engine.Engine, chain *engine.Chain, policy ui.Policy, diag *rtlog.Ring) {
	cc := 21
	idx := 0
	for i, stage := range chain.Effects() {
		eng.BindNote(uint8(60+i), stage)
		for _, p := range stage.Params().All() {
			p := p
			pot := ui.NewPotentiometer(idx, stage.Name()+"."+p.ID(), p.Normalized(), &policy, diag)
			pot.AddListener(ui.PotListenerFunc(func(pt *ui.Potentiometer) {
				p.SetNormalized(pt.Current())
			}))
			eng.AddPot(pot, cc)
			cc++
			idx++
		}
	}
}

func snapshot(eng *engine.Engine) tui.Snapshot {
	info := eng.Source().Info()
	snap := tui.Snapshot{
		Track:     info.Name,
		Underruns: eng.Source().Underruns(),
		Blocks:    eng.Blocks(),
	}
	for _, stage := range eng.Chain().Effects() {
		snap.Effects = append(snap.Effects, tui.EffectView{
			Name:    stage.Name(),
			Engaged: stage.IsEngaged(),
		})
		for _, p := range stage.Params().All() {
			snap.Params = append(snap.Params, tui.ParamView{
				Name:       stage.Name() + "." + p.ID(),
				Value:      p.PrintValue(),
				Normalized: p.Normalized(),
			})
		}
	}
	return snap
}
