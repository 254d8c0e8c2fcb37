package indicator

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jfreymuth/pulse"

	"github.com/naman200494-art/Touchless-Gesture-Control/internal/mode"
)

type cueKind int

const (
	cueStart cueKind = iota + 1
	cueStop
	cueError
)

const (
	cueSampleRate = 16000
	cueVolume     = 0.18
	cueGap        = 22 * time.Millisecond
	cueRamp       = 5 * time.Millisecond
)

type note struct {
	hz  float64
	dur time.Duration
}

// modeStartNote is the second note of each start cue, so modes can be told
// apart by ear.
var modeStartNote = map[mode.Mode]float64{
	mode.Hand:     1175,
	mode.Eye:      1319,
	mode.Voice:    1047,
	mode.Keyboard: 1397,
}

type cueKey struct {
	kind cueKind
	mode mode.Mode
}

var cueBank = buildCueBank()

func buildCueBank() map[cueKey][]int16 {
	bank := map[cueKey][]int16{
		{kind: cueStop}: renderNotes(note{hz: 620, dur: 120 * time.Millisecond}),
		{kind: cueError}: renderNotes(
			note{hz: 480, dur: 75 * time.Millisecond},
			note{hz: 360, dur: 90 * time.Millisecond},
		),
	}
	for _, m := range mode.Active {
		bank[cueKey{kind: cueStart, mode: m}] = renderNotes(
			note{hz: 880, dur: 70 * time.Millisecond},
			note{hz: modeStartNote[m], dur: 70 * time.Millisecond},
		)
	}
	return bank
}

// cuePCM returns the samples for kind. Only start cues vary by mode.
func cuePCM(kind cueKind, m mode.Mode) []int16 {
	if kind != cueStart {
		m = ""
	}
	return cueBank[cueKey{kind: kind, mode: m}]
}

// emitCue plays the cue for kind and m through the pulse server.
func emitCue(ctx context.Context, kind cueKind, m mode.Mode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pcm := cuePCM(kind, m)
	if len(pcm) == 0 {
		return nil
	}
	return playPCM(ctx, pcm)
}

func playPCM(ctx context.Context, pcm []int16) error {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("touchless"),
		pulse.ClientApplicationIconName("input-mouse"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	stream, err := client.NewPlayback(
		pcmReader(pcm),
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(cueSampleRate),
		pulse.PlaybackLatency(0.02),
		pulse.PlaybackMediaName("touchless mode cue"),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stopOnCancel := context.AfterFunc(ctx, stream.Stop)
	defer stopOnCancel()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play cue stream: %w", err)
	}
	return ctx.Err()
}

func pcmReader(pcm []int16) pulse.Reader {
	remaining := pcm
	return pulse.Int16Reader(func(buf []int16) (int, error) {
		n := copy(buf, remaining)
		remaining = remaining[n:]
		if len(remaining) == 0 {
			return n, pulse.EndOfData
		}
		return n, nil
	})
}

// renderNotes concatenates notes with a short silence between them.
func renderNotes(notes ...note) []int16 {
	gap := sampleCount(cueGap)
	var pcm []int16
	for i, nt := range notes {
		if i > 0 {
			pcm = append(pcm, make([]int16, gap)...)
		}
		pcm = append(pcm, renderNote(nt)...)
	}
	return pcm
}

// renderNote is a sine tone with linear fade in and out to avoid clicks.
func renderNote(nt note) []int16 {
	n := sampleCount(nt.dur)
	if n == 0 || nt.hz <= 0 {
		return nil
	}

	ramp := min(max(n/10, 1), sampleCount(cueRamp))
	pcm := make([]int16, n)
	for i := range pcm {
		gain := min(1, float64(i)/float64(ramp), float64(n-1-i)/float64(ramp))
		phase := 2 * math.Pi * nt.hz * float64(i) / cueSampleRate
		pcm[i] = int16(math.Round(math.Sin(phase) * cueVolume * gain * math.MaxInt16))
	}
	return pcm
}

func sampleCount(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * cueSampleRate))
}
