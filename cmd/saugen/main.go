// Command saugen is the render-loop CLI (spec §6): it loads one or more
// compiled Programs (as scoreio JSON, standing in for the out-of-scope
// script compiler's output) and plays and/or renders them to a WAV file.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/cbegin/saugo/internal/generator"
	"github.com/cbegin/saugo/internal/program"
	"github.com/cbegin/saugo/internal/render"
	"github.com/cbegin/saugo/internal/scoreio"
)

const version = "saugen 0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("saugen", pflag.ContinueOnError)
	flags.SetOutput(os.Stderr)

	var (
		enableAudio  = flags.BoolP("audio", "a", false, "enable audio device playback")
		disableAudio = flags.BoolP("no-audio", "m", false, "disable audio device playback")
		sampleRate   = flags.IntP("rate", "r", 48000, "sample rate in Hz")
		wavPath      = flags.StringP("out", "o", "", "write a WAV file to <path>")
		inlineScript = flags.BoolP("eval", "e", false, "treat arguments as inline score JSON, not file paths")
		checkOnly    = flags.BoolP("check", "c", false, "parse and validate only; do not render")
		printInfo    = flags.BoolP("print", "p", false, "print program info before rendering")
		help         = flags.StringP("help", "h", "", "show help, optionally for <topic>")
		showVersion  = flags.BoolP("version", "v", false, "print version and exit")
	)
	flags.Lookup("help").NoOptDefVal = "general"

	if err := flags.Parse(args); err != nil {
		return 1
	}

	if *showVersion {
		fmt.Println(version)
		return 0
	}
	if flags.Changed("help") {
		printHelp(*help)
		return 0
	}

	positional := flags.Args()
	if len(positional) == 0 {
		fmt.Fprintln(os.Stderr, "saugen: no score given (script paths or, with -e, inline JSON strings)")
		return 1
	}

	progs, err := loadPrograms(positional, *inlineScript, *sampleRate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "saugen: %v\n", err)
		return 1
	}

	if *printInfo {
		for i, p := range progs {
			printProgramInfo(i, p)
		}
	}
	if *checkOnly {
		return 0
	}

	audioOn := *enableAudio && !*disableAudio

	for i, p := range progs {
		if err := renderOne(p, *sampleRate, audioOn, wavPathFor(*wavPath, i, len(progs))); err != nil {
			fmt.Fprintf(os.Stderr, "saugen: %v\n", err)
			return 1
		}
	}
	return 0
}

func wavPathFor(base string, i, n int) string {
	if base == "" || n <= 1 {
		return base
	}
	ext := ".wav"
	if dot := strings.LastIndexByte(base, '.'); dot >= 0 {
		ext = base[dot:]
		base = base[:dot]
	}
	return fmt.Sprintf("%s.%d%s", base, i, ext)
}

func loadPrograms(positional []string, inline bool, sampleRate int) ([]*program.Program, error) {
	progs := make([]*program.Program, 0, len(positional))
	for _, arg := range positional {
		var p *program.Program
		var err error
		if inline {
			p, err = scoreio.Decode(strings.NewReader(arg))
		} else {
			p, err = scoreio.Load(arg)
		}
		if err != nil {
			return nil, err
		}
		if p.SampleRate == 0 {
			p.SampleRate = sampleRate
		}
		progs = append(progs, p)
	}
	return progs, nil
}

func printProgramInfo(i int, p *program.Program) {
	fmt.Printf("program %d: %d voice(s), %d operator(s), %d event(s), sample_rate=%d\n",
		i, p.VoiceCount, p.OperatorCount, len(p.Events), p.SampleRate)
}

func renderOne(p *program.Program, sampleRate int, audioOn bool, wavPath string) error {
	gen, err := generator.New(p, sampleRate)
	if err != nil {
		return fmt.Errorf("generator: %w", err)
	}

	diag := func(label, msg string) {
		fmt.Fprintf(os.Stderr, "%s: %s\n", label, msg)
	}
	gen.Diag = diag

	loop := render.NewLoop(gen, render.Options{
		SampleRate: sampleRate,
		Stereo:     true,
		Diag:       diag,
	})

	if audioOn {
		dev, err := render.NewEbitenDevice(sampleRate)
		if err != nil {
			return fmt.Errorf("audio device: %w", err)
		}
		loop.AddAudioDevice(dev)
	}
	if wavPath != "" {
		w, err := render.NewWavWriter(wavPath, 2, sampleRate)
		if err != nil {
			return fmt.Errorf("wav file: %w", err)
		}
		loop.AddWavFile(w)
	}

	runErr := loop.Run()
	closeErr := loop.Close()
	if runErr != nil {
		return runErr
	}
	return closeErr
}

func printHelp(topic string) {
	switch strings.ToLower(strings.TrimSpace(topic)) {
	case "flags", "options":
		fmt.Println("flags: -a/-m (audio on/off), -r <Hz>, -o <path>, -e, -c, -p, -h[=topic], -v")
	default:
		fmt.Println("usage: saugen [flags] <score.json>...")
		fmt.Println("  positional args are scoreio JSON paths, or inline JSON with -e")
		fmt.Println("  try -h=flags for the flag reference")
	}
}
