package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/llehouerou/waveplug/internal/app"
	"github.com/llehouerou/waveplug/internal/config"
	"github.com/llehouerou/waveplug/internal/cue"
	"github.com/llehouerou/waveplug/internal/errmsg"
	"github.com/llehouerou/waveplug/internal/state"
)

func main() {
	os.Exit(run())
}

func run() int {
	flags := pflag.NewFlagSet("waveplug", pflag.ContinueOnError)
	configPath := flags.String("config", "", "extra config file (TOML)")
	cueGaps := flags.String("cue-gaps", "", "CUE gap policy: skip, prev, or prev1 (prev and first track from 0)")
	track := flags.Int("track", 0, "only emit this CUE track (1-based)")
	doProbe := flags.Bool("probe", false, "read tags of entries without metadata")
	decode := flags.Bool("decode", false, "decode FLAC entries and print their format")
	retag := flags.Bool("retag", false, "write entry metadata to whole-file FLAC entries")
	picture := flags.String("picture", "", "picture to attach when retagging")
	save := flags.Bool("save", false, "save the queue to the state database")
	load := flags.String("load", "", "print a saved queue by ID")
	list := flags.Bool("list", false, "list saved queues")
	del := flags.String("delete", "", "delete a saved queue by ID")
	debug := flags.Bool("debug", false, "enable debug logging")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: waveplug [flags] INPUT...\n\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Logger()

	if flags.NArg() == 0 && *load == "" && *del == "" && !*list {
		flags.Usage()
		return 2
	}

	gaps := -1
	if *cueGaps != "" {
		g, err := cue.ParseGapPolicy(*cueGaps)
		if err != nil {
			fmt.Fprintf(os.Stderr, "--cue-gaps: %v\n", err)
			return 2
		}
		gaps = int(g)
	}

	var extra []string
	if *configPath != "" {
		extra = append(extra, *configPath)
	}
	cfg, err := config.Load(extra...)
	if err != nil {
		log.Error().Msg(errmsg.Format(errmsg.OpConfigLoad, err))
		return 1
	}

	var st state.Interface
	if *save || *load != "" || *del != "" || *list {
		mgr, err := state.Open(cfg.State.Path)
		if err != nil {
			log.Error().Msg(errmsg.Format(errmsg.OpStateOpen, err))
			return 1
		}
		defer mgr.Close()
		st = mgr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := app.New(cfg, st, log, os.Stdout)
	err = a.Run(ctx, app.Options{
		Inputs:  flags.Args(),
		CueGaps: gaps,
		Track:   *track,
		Probe:   *doProbe,
		Decode:  *decode,
		Retag:   *retag,
		Picture: *picture,
		Save:    *save,
		Load:    *load,
		List:    *list,
		Delete:  *del,
	})
	if err != nil {
		log.Error().Msg(err.Error())
		return 1
	}
	return 0
}
