package main

import (
	"flag"

	"github.com/asticode/go-astilog"
	asticonfig "github.com/asticode/go-astitools/config"
	"github.com/pkg/errors"

	accessvoice "github.com/accesswork/go-accessvoice"
	"github.com/accesswork/go-accessvoice/abilities/announcer"
	"github.com/accesswork/go-accessvoice/abilities/sound_feedback"
	"github.com/accesswork/go-accessvoice/abilities/speech"
	"github.com/accesswork/go-accessvoice/abilities/speech/speaker"
	"github.com/accesswork/go-accessvoice/abilities/voice_command"
	"github.com/accesswork/go-accessvoice/abilities/voice_reading"
	"github.com/accesswork/go-accessvoice/recognition"
	"github.com/accesswork/go-accessvoice/recognition/deepspeech"
	astiportaudio "github.com/accesswork/go-accessvoice/recognition/portaudio"
	"github.com/accesswork/go-accessvoice/recognition/whisperd"
	"github.com/accesswork/go-accessvoice/worker"
)

// Runnable names
const (
	announcerName     = "Announcer"
	soundFeedbackName = "Sound Feedback"
	speechName        = "Speech"
	voiceCommandName  = "Voice Command"
	voiceReadingName  = "Voice Reading"
)

// Flags
var (
	config = flag.String("c", "", "the config path")
	name   = flag.String("n", "", "the worker's name")
)

func main() {
	// Parse flags
	flag.Parse()
	astilog.FlagInit()

	// Init configuration
	c := newConfiguration()

	// Create worker
	w := worker.New(c.Name, c.Worker)
	defer w.Close()

	// Handle signals
	w.HandleSignals()

	// Init portaudio
	p := astiportaudio.New()
	if err := p.Initialize(); err != nil {
		astilog.Fatal(errors.Wrap(err, "main: initializing portaudio failed"))
	}
	defer p.Close()

	// Init portaudio stream
	s, err := p.NewDefaultStream(c.PortAudio)
	if err != nil {
		astilog.Fatal(errors.Wrap(err, "main: creating portaudio default stream failed"))
	}
	defer s.Close()

	// Init parser
	var parser recognition.Parser
	switch c.Parser {
	case "whisperd":
		parser = whisperd.New(c.Whisperd)
	default:
		parser = deepspeech.New(c.DeepSpeech)
	}

	// Init recognition engine
	e := recognition.NewEngine(s, parser, c.Engine)

	// Init speaker
	sp := speaker.New(c.Speaker)
	if err := sp.Init(); err != nil {
		astilog.Fatal(errors.Wrap(err, "main: initializing speaker failed"))
	}
	defer sp.Close()

	// Sound cues are played on a playback stream constructed lazily so that
	// no output device is held while sound effects are disabled
	playerFunc := func() (sound_feedback.Player, error) {
		pb, err := p.NewDefaultPlayback(c.Playback)
		if err != nil {
			return nil, errors.Wrap(err, "main: creating portaudio default playback failed")
		}
		return sound_feedback.NewPlaybackPlayer(pb), nil
	}

	// Register runnables
	w.RegisterRunnables(
		worker.Runnable{
			AutoStart: true,
			Runnable:  announcer.NewRunnable(announcerName),
		},
		worker.Runnable{
			AutoStart: true,
			Runnable:  speech.NewRunnable(speechName, sp, c.Speech),
		},
		worker.Runnable{
			AutoStart: true,
			Runnable:  sound_feedback.NewRunnable(soundFeedbackName, playerFunc, c.SoundFeedback),
		},
		worker.Runnable{
			AutoStart: true,
			Runnable:  voice_reading.NewRunnable(voiceReadingName, c.VoiceReading),
		},
		worker.Runnable{
			AutoStart: true,
			Runnable:  voice_command.NewRunnable(voiceCommandName, e, p, c.VoiceCommand),
		},
	)

	// Serve
	w.Serve()

	// Register to index
	w.Register()

	// Blocking pattern
	w.Wait()
}

// Configuration represents a configuration
type Configuration struct {
	DeepSpeech    deepspeech.Options             `toml:"deepspeech"`
	Engine        recognition.EngineOptions      `toml:"engine"`
	Name          string                         `toml:"name"`
	Parser        string                         `toml:"parser"`
	Playback      astiportaudio.PlaybackOptions  `toml:"playback"`
	PortAudio     astiportaudio.StreamOptions    `toml:"portaudio"`
	SoundFeedback sound_feedback.RunnableOptions `toml:"sound_feedback"`
	Speaker       speaker.Options                `toml:"speaker"`
	Speech        speech.RunnableOptions         `toml:"speech"`
	VoiceCommand  voice_command.RunnableOptions  `toml:"voice_command"`
	VoiceReading  voice_reading.RunnableOptions  `toml:"voice_reading"`
	Whisperd      whisperd.Options               `toml:"whisperd"`
	Worker        worker.Options                 `toml:"worker"`
}

// newConfiguration creates a new configuration
func newConfiguration() *Configuration {
	// Global config
	gc := &Configuration{
		Name:   "Worker #1",
		Parser: "deepspeech",
		PortAudio: astiportaudio.StreamOptions{
			MaxSilenceAudioLevel: 5 * 1e6,
		},
		SoundFeedback: sound_feedback.RunnableOptions{Enabled: true},
		Speech: speech.RunnableOptions{
			Announcer: announcerName,
		},
		VoiceCommand: voice_command.RunnableOptions{
			Announcer:     announcerName,
			SoundFeedback: soundFeedbackName,
			Speech:        speechName,
		},
		VoiceReading: voice_reading.RunnableOptions{
			SoundFeedback: soundFeedbackName,
			Speech:        speechName,
		},
		Worker: worker.Options{
			Index: accessvoice.ServerOptions{
				Addr:     "127.0.0.1:4000",
				Password: "admin",
				Username: "admin",
			},
			Server: accessvoice.ServerOptions{Addr: "127.0.0.1:4001"},
		},
	}

	// Flag config
	fc := &Configuration{Name: *name}

	// Build configuration
	c, err := asticonfig.New(gc, *config, fc)
	if err != nil {
		astilog.Fatal(err)
	}
	return c.(*Configuration)
}
