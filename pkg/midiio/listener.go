package midiio

import (
	"fmt"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/herrausgefuchst/grainmother/pkg/rtlog"
)

// Listener connects a MIDI input port to a Queue, translating control
// changes, program changes and notes into normalized control events.
type Listener struct {
	drv    *rtmididrv.Driver
	inPort drivers.In
	stop   func()
	queue  *Queue
	logger *rtlog.Logger
}

// Connect opens the named MIDI input (substring match, or the first port
// when name is empty) and starts feeding queue.
func Connect(name string, queue *Queue, logger *rtlog.Logger) (*Listener, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("midi driver: %w", err)
	}

	ins, err := drv.Ins()
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("list midi inputs: %w", err)
	}

	var found drivers.In
	for _, in := range ins {
		if name == "" || strings.Contains(in.String(), name) {
			found = in
			break
		}
	}
	if found == nil {
		drv.Close()
		return nil, fmt.Errorf("midi input %q not found (%d ports)", name, len(ins))
	}
	if err := found.Open(); err != nil {
		drv.Close()
		return nil, fmt.Errorf("open midi port %s: %w", found, err)
	}

	l := &Listener{drv: drv, inPort: found, queue: queue, logger: logger}

	stop, err := midi.ListenTo(found, l.onMessage, midi.HandleError(func(listenErr error) {
		logger.Warn("midi listener error: %v", listenErr)
	}))
	if err != nil {
		found.Close()
		drv.Close()
		return nil, fmt.Errorf("start midi listener: %w", err)
	}
	l.stop = stop

	logger.Info("midi input connected: %s", found)
	return l, nil
}

func (l *Listener) onMessage(msg midi.Message, _ int32) {
	var channel, controller, value, program, key, velocity uint8

	switch {
	case msg.GetControlChange(&channel, &controller, &value):
		l.queue.Push(Event{
			Kind:       KindControlChange,
			Channel:    channel,
			Controller: controller,
			Value:      float64(value) / 127.0,
		})
	case msg.GetProgramChange(&channel, &program):
		l.queue.Push(Event{
			Kind:    KindProgramChange,
			Channel: channel,
			Program: program,
		})
	case msg.GetNoteOn(&channel, &key, &velocity):
		l.queue.Push(Event{
			Kind:    KindNote,
			Channel: channel,
			Note:    key,
			On:      true,
			Value:   float64(velocity) / 127.0,
		})
	case msg.GetNoteOff(&channel, &key, &velocity):
		l.queue.Push(Event{
			Kind:    KindNote,
			Channel: channel,
			Note:    key,
		})
	}
}

// Port returns the connected port name.
func (l *Listener) Port() string {
	return l.inPort.String()
}

// Close stops listening and releases the port and driver.
func (l *Listener) Close() {
	if l.stop != nil {
		l.stop()
	}
	l.inPort.Close()
	l.drv.Close()
	l.logger.Info("midi input disconnected: %s", l.inPort)
}
