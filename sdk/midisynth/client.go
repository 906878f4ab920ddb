// Package midisynth renders Standard MIDI Files to WAV through a SoundFont
// synthesizer, with instruments assigned to tracks by an instrument
// configuration.
package midisynth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/leandrodaf/midisynth/internal/config"
	"github.com/leandrodaf/midisynth/internal/mixer"
	"github.com/leandrodaf/midisynth/internal/progress"
	"github.com/leandrodaf/midisynth/internal/sequencer"
	"github.com/leandrodaf/midisynth/internal/smfin"
	"github.com/leandrodaf/midisynth/internal/synth"
	"github.com/leandrodaf/midisynth/internal/wavfile"
	"github.com/leandrodaf/midisynth/sdk/contracts"
)

// ErrNoMusic is returned when no track could be rendered.
var ErrNoMusic = errors.New("No music was generated")

const outputChannels = 2

// SoundFont creates synthesizers sharing one instrument bank.
type SoundFont interface {
	NewSynth(sampleRate int) (synth.Synth, error)
}

// Renderer turns sequenced tracks into a WAV file.
type Renderer struct {
	log      contracts.Logger
	render   contracts.RenderConfig
	progress *progress.Reporter

	// openSoundFont is replaced in tests.
	openSoundFont func(path string) (SoundFont, error)
}

// NewRenderer creates a Renderer with the specified options.
func NewRenderer(opts ...contracts.Option) (*Renderer, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}

	var out io.Writer
	if !options.QuietProgress {
		out = options.Progress
	}

	return &Renderer{
		log:      options.Logger,
		render:   *options.Render,
		progress: progress.New(out),
		openSoundFont: func(path string) (SoundFont, error) {
			return synth.OpenSoundFont(path)
		},
	}, nil
}

// RenderFile renders the MIDI file at midiPath with the instrument
// configuration at configPath and writes the result to wavPath.
func (r *Renderer) RenderFile(ctx context.Context, configPath, midiPath, wavPath string) error {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return fmt.Errorf("Reading configuration file %s failed: %w", configPath, err)
	}

	base := ""
	if r.render.RelativeSoundFont {
		base = filepath.Dir(configPath)
	}
	sf, err := r.openSoundFont(cfg.ResolveSoundFont(base))
	if err != nil {
		return err
	}

	midi, err := os.Open(midiPath)
	if err != nil {
		return fmt.Errorf("Reading MIDI file %s failed: %w", midiPath, err)
	}
	defer midi.Close()

	f, err := smfin.Decode(midi)
	if err != nil {
		return fmt.Errorf("Loading MIDI file %s failed: %w", midiPath, err)
	}

	tracks, err := r.sequence(f)
	if err != nil {
		return fmt.Errorf("Loading MIDI file %s failed: %w", midiPath, err)
	}

	samples, err := r.renderAndMix(ctx, cfg, sf, tracks)
	if err != nil {
		return err
	}

	if err := wavfile.WriteFile(wavPath, samples, r.render.SampleRate, r.render.BitDepth); err != nil {
		return fmt.Errorf("Writing output WAV file %s failed: %w", wavPath, err)
	}
	r.log.Info("WAV file written", r.log.Field().String("path", wavPath))
	return nil
}

// Render reads an SMF from midi and writes the rendered WAV to out.
func (r *Renderer) Render(ctx context.Context, cfg *config.Config, sf SoundFont, midi io.Reader, out io.WriteSeeker) error {
	f, err := smfin.Decode(midi)
	if err != nil {
		return fmt.Errorf("decode MIDI: %w", err)
	}
	tracks, err := r.sequence(f)
	if err != nil {
		return err
	}
	return r.RenderTracks(ctx, cfg, sf, tracks, out)
}

// RenderTracks renders already sequenced tracks and writes the WAV to out.
func (r *Renderer) RenderTracks(ctx context.Context, cfg *config.Config, sf SoundFont, tracks []sequencer.PlayerTrack, out io.WriteSeeker) error {
	samples, err := r.renderAndMix(ctx, cfg, sf, tracks)
	if err != nil {
		return err
	}
	return wavfile.Write(out, samples, r.render.SampleRate, outputChannels, r.render.BitDepth)
}

func (r *Renderer) sequence(f *smfin.File) ([]sequencer.PlayerTrack, error) {
	stage := r.progress.Stage("[1/3] Sequencing MIDI file...")
	bar := stage.Bar("")
	tracks, err := sequencer.New(f.Tracks).PlayAll(f.Timing, bar)
	bar.Done()
	stage.Wait()
	if err != nil {
		return nil, err
	}
	r.log.Debug("MIDI file sequenced", r.log.Field().Int("tracks", len(tracks)))
	return tracks, nil
}

type layerJob struct {
	track sequencer.PlayerTrack
	inst  contracts.Instrument
	bar   *progress.Bar
}

func (r *Renderer) renderAndMix(ctx context.Context, cfg *config.Config, sf SoundFont, tracks []sequencer.PlayerTrack) ([]float32, error) {
	stage := r.progress.Stage("[2/3] Rendering tracks...")

	var jobs []layerJob
	for idx, track := range tracks {
		if !track.HasName {
			continue
		}
		layers, ok, err := cfg.Layers(track.Name)
		if !ok {
			// The first track usually only carries tempo and the song title.
			if idx != 0 {
				stage.Warnf("No instruments defined for %s, skipping track!", track.Name)
			}
			continue
		}
		for _, e := range multierr.Errors(err) {
			var le *config.LayerError
			if errors.As(e, &le) {
				e = le.Err
			}
			stage.Warnf("%s for %s, skipping track!", e, track.Name)
		}
		for _, inst := range layers {
			jobs = append(jobs, layerJob{track: track, inst: inst, bar: stage.Bar(track.Name)})
		}
	}

	for _, k := range cfg.Undecoded() {
		r.log.Debug("unknown configuration key ignored", r.log.Field().String("key", k))
	}

	mixed, err := r.renderJobs(ctx, sf, jobs)
	stage.Wait()
	if err != nil {
		return nil, err
	}
	if len(mixed) == 0 {
		return nil, ErrNoMusic
	}

	stage = r.progress.Stage("[3/3] Mixing...")
	bar := stage.Bar("")
	samples := mixer.MixStereo(mixed, bar)
	bar.Done()
	stage.Wait()
	return samples, nil
}

func (r *Renderer) renderJobs(ctx context.Context, sf SoundFont, jobs []layerJob) ([]mixer.Track, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.render.Workers)

	// Each job writes only its own slot.
	mixed := make([]mixer.Track, len(jobs))
	opts := synth.Options{
		Padding:       r.render.Padding,
		IgnoreNoteOff: r.render.IgnoreNoteOff,
		Logger:        r.log,
	}

	for i, job := range jobs {
		g.Go(func() error {
			defer job.bar.Done()

			s, err := sf.NewSynth(r.render.SampleRate)
			if err != nil {
				return fmt.Errorf("create synthesizer for %s: %w", job.track.Name, err)
			}
			left, right, err := synth.RenderTrack(ctx, s, job.track, job.inst, opts, job.bar)
			if err != nil {
				return fmt.Errorf("render %s: %w", job.track.Name, err)
			}

			r.log.Debug("layer rendered",
				r.log.Field().String("track", job.track.Name),
				r.log.Field().Int("bank", int(job.inst.Bank)),
				r.log.Field().Int("preset", int(job.inst.Preset)),
				r.log.Field().Int("samples", len(left)))

			mixed[i] = mixer.Track{
				Left:  left,
				Right: right,
				Gain:  mixer.NewGainFactors(job.inst.Gain, job.inst.Pan),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return mixed, nil
}
