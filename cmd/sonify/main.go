package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/alexflint/go-arg"

	"github.com/cbegin/sonify-go"
	"github.com/cbegin/sonify-go/internal/pcm"
)

// previewHold keeps the device open long enough for a preview to ring out.
const previewHold = 600 * time.Millisecond

type renderCmd struct {
	Project string `arg:"positional,required" help:"project JSON file"`
	Out     string `arg:"-o,--out" default:"." help:"directory the WAV file is written to"`
	Name    string `arg:"--name" default:"export.wav" help:"output file name"`
}

type playCmd struct {
	Project string `arg:"positional,required" help:"project JSON file"`
	Loops   int    `arg:"--loops" default:"1" help:"stop after N cycles (0 = loop forever)"`
}

type previewCmd struct {
	Track  string  `arg:"positional,required" help:"melody|bass|drums"`
	Pitch  float64 `arg:"--pitch" default:"440" help:"pitch in Hz (melody, bass)"`
	Timbre string  `arg:"--timbre" default:"sine" help:"sine|square|sawtooth|triangle|pulse|organ"`
	Sample string  `arg:"--sample" default:"kick" help:"kick|snare|hat (drums)"`
}

type infoCmd struct {
	File string `arg:"positional,required" help:"WAV file"`
}

type args struct {
	Render     *renderCmd  `arg:"subcommand:render" help:"render a project to a WAV file"`
	Play       *playCmd    `arg:"subcommand:play" help:"play a project on the audio device"`
	Preview    *previewCmd `arg:"subcommand:preview" help:"sound a single note or hit"`
	Info       *infoCmd    `arg:"subcommand:info" help:"print the header of a WAV file"`
	SampleRate int         `arg:"--sample-rate" default:"44100" help:"sample rate in Hz"`
	Seed       int64       `arg:"--seed" default:"1" help:"seed for reverb impulses and percussion noise"`
}

func (args) Description() string {
	return "sonify sequences a melody/bass/drums composition through per-track effect chains"
}

func main() {
	var a args
	p := arg.MustParse(&a)
	if p.Subcommand() == nil {
		p.Fail("missing subcommand")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch {
	case a.Render != nil:
		err = runRender(ctx, a, a.Render)
	case a.Play != nil:
		err = runPlay(ctx, a, a.Play)
	case a.Preview != nil:
		err = runPreview(ctx, a, a.Preview)
	case a.Info != nil:
		err = runInfo(a.Info)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func runRender(ctx context.Context, a args, cmd *renderCmd) error {
	proj, err := loadProject(cmd.Project)
	if err != nil {
		return err
	}
	e, err := sonify.New(sonify.WithSampleRate(a.SampleRate), sonify.WithSeed(a.Seed), sonify.WithExportName(cmd.Name))
	if err != nil {
		return err
	}
	path, err := e.ExportToFile(ctx, cmd.Out, &proj.Composition, proj.Duration, proj.Effects, proj.Controls)
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d frames)\n", path, sonify.RenderFrames(proj.Duration, a.SampleRate))
	return nil
}

func runPlay(ctx context.Context, a args, cmd *playCmd) error {
	proj, err := loadProject(cmd.Project)
	if err != nil {
		return err
	}
	e, err := sonify.New(
		sonify.WithSampleRate(a.SampleRate),
		sonify.WithSeed(a.Seed),
		sonify.WithLoopPlayback(cmd.Loops != 1),
	)
	if err != nil {
		return err
	}
	if err := e.Init(); err != nil {
		return err
	}
	defer e.Close()

	events := e.Watch()
	if err := e.Play(&proj.Composition, proj.Duration, proj.Effects, proj.Controls); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return e.Stop()
		case ev := <-events:
			switch ev.Kind {
			case sonify.EventPlaybackEnded:
				fmt.Println("playback completed")
				return nil
			case sonify.EventLoopCompleted:
				fmt.Printf("loop %d completed\n", ev.Loops)
				if cmd.Loops > 0 && ev.Loops >= cmd.Loops {
					return e.Stop()
				}
			}
		}
	}
}

func runPreview(ctx context.Context, a args, cmd *previewCmd) error {
	track, err := sonify.ParseTrack(cmd.Track)
	if err != nil {
		return err
	}
	e, err := sonify.New(sonify.WithSampleRate(a.SampleRate), sonify.WithSeed(a.Seed))
	if err != nil {
		return err
	}
	if err := e.Init(); err != nil {
		return err
	}
	defer e.Close()

	switch track {
	case sonify.Melody:
		timbre, err := sonify.ParseTimbre(cmd.Timbre)
		if err != nil {
			return err
		}
		e.PreviewNote(cmd.Pitch, timbre, sonify.DefaultEffects().Melody)
	case sonify.Bass:
		e.PreviewBass(cmd.Pitch)
	case sonify.Drums:
		kind, err := sonify.ParseDrumKind(cmd.Sample)
		if err != nil {
			return err
		}
		e.PreviewDrum(kind)
	}
	select {
	case <-ctx.Done():
	case <-time.After(previewHold):
	}
	return nil
}

func runInfo(cmd *infoCmd) error {
	f, err := os.Open(cmd.File)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := pcm.Inspect(f)
	if err != nil {
		return fmt.Errorf("%s: %w", cmd.File, err)
	}
	fmt.Printf("format:      %d\n", info.Format)
	fmt.Printf("channels:    %d\n", info.Channels)
	fmt.Printf("sample rate: %d\n", info.SampleRate)
	fmt.Printf("bit depth:   %d\n", info.BitDepth)
	fmt.Printf("byte rate:   %d\n", info.ByteRate)
	fmt.Printf("data bytes:  %d\n", info.DataBytes)
	fmt.Printf("frames:      %d\n", info.Frames())

	if info.Format != pcm.FormatPCM || info.BitDepth != pcm.BitsPerSample {
		return nil
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	chans, _, err := pcm.Decode(f)
	if err != nil {
		return fmt.Errorf("%s: %w", cmd.File, err)
	}
	for c, p := range peaks(chans) {
		fmt.Printf("peak ch%d:    %.1f dBFS\n", c, dbfs(p))
	}
	return nil
}

// peaks returns the largest absolute sample of each channel.
func peaks(chans [][]float32) []float64 {
	out := make([]float64, len(chans))
	for c, ch := range chans {
		for _, v := range ch {
			out[c] = math.Max(out[c], math.Abs(float64(v)))
		}
	}
	return out
}

func dbfs(peak float64) float64 {
	if peak <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(peak)
}
