// Package app runs the waveplug command: it parses inputs into a queue,
// optionally enriches, decodes, retags and persists it, and prints it.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/llehouerou/waveplug/internal/config"
	"github.com/llehouerou/waveplug/internal/errmsg"
	"github.com/llehouerou/waveplug/internal/filter"
	"github.com/llehouerou/waveplug/internal/plugin"
	"github.com/llehouerou/waveplug/internal/probe"
	"github.com/llehouerou/waveplug/internal/queue"
	"github.com/llehouerou/waveplug/internal/state"
)

// ErrInputs is returned by Run when at least one input could not be read.
var ErrInputs = errors.New("some inputs failed")

// Options select what Run does.
type Options struct {
	Inputs []string
	// CueGaps overrides the configured gap policy when >= 0.
	CueGaps int
	// Track selects a single CUE track when > 0.
	Track   int
	Probe   bool
	Decode  bool
	Retag   bool
	Picture string
	Save    bool
	Load    string
	List    bool
	Delete  string
}

// App holds the collaborators of a run.
type App struct {
	cfg   *config.Config
	state state.Interface
	log   zerolog.Logger
	out   io.Writer
}

// New creates an App. st may be nil when nothing is persisted.
func New(cfg *config.Config, st state.Interface, log zerolog.Logger, out io.Writer) *App {
	if cfg == nil {
		cfg = &config.Config{}
	}
	return &App{cfg: cfg, state: st, log: log, out: out}
}

// Run executes opts.
func (a *App) Run(ctx context.Context, opts Options) error {
	switch {
	case opts.List:
		return a.list(ctx)
	case opts.Load != "":
		return a.load(ctx, opts.Load)
	case opts.Delete != "":
		return a.delete(ctx, opts.Delete)
	}

	entries, err := a.parse(ctx, opts)
	if err != nil && !errors.Is(err, ErrInputs) {
		return err
	}
	inputErr := err

	if opts.Probe {
		a.probe(entries)
	}

	a.print(entries)

	if opts.Decode {
		a.decodeAll(ctx, entries)
	}
	if opts.Retag {
		if err := a.retagAll(entries, opts.Picture); err != nil {
			return err
		}
	}
	if opts.Save {
		if err := a.save(ctx, strings.Join(opts.Inputs, " "), entries); err != nil {
			return err
		}
	}
	return inputErr
}

// parse reads every input into its own queue, in parallel, and merges the
// queues in argument order.
func (a *App) parse(ctx context.Context, opts Options) ([]queue.Entry, error) {
	cfg := *a.cfg
	if opts.CueGaps >= 0 {
		gaps := opts.CueGaps
		cfg.Cue.Gaps = &gaps
	}
	inputCfg := cfg.GetInputConfig()

	queues := make([]*queue.Queue, len(opts.Inputs))
	failed := make([]bool, len(opts.Inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(inputCfg.Jobs)
	for i, input := range opts.Inputs {
		queues[i] = queue.New()
		g.Go(func() error {
			if err := a.parseInput(ctx, &cfg, input, opts.Track, queues[i]); err != nil {
				a.log.Error().Str("input", input).Msg(errmsg.FormatWith(errmsg.OpInputOpen, input, err))
				failed[i] = true
			}
			return nil
		})
	}
	_ = g.Wait()

	merged := queue.New()
	var err error
	for i, q := range queues {
		merged.Append(q.Entries()...)
		if failed[i] {
			err = ErrInputs
		}
	}
	return merged.Entries(), err
}

func (a *App) parseInput(ctx context.Context, cfg *config.Config, input string, track int, q *queue.Queue) error {
	m := plugin.New(plugin.Env{Sink: q, Log: a.log, Config: cfg})
	name, opener, err := m.ForPath(input)
	if err != nil {
		return err
	}
	if !plugin.IsPlaylist(name) {
		// A media file is its own entry.
		q.Add(queue.Entry{URL: input})
		return nil
	}

	t := filter.NewTrack(input)
	if track > 0 {
		t.Values[filter.ValueTrackNo] = int64(track)
	}
	f, err := opener(t)
	if err != nil {
		return err
	}
	defer f.Close()

	var r io.Reader = strings.NewReader("")
	if name != plugin.NameDir {
		file, err := os.Open(input)
		if err != nil {
			return err
		}
		defer file.Close()
		r = file
	}
	return filter.Run(ctx, f, t, r, cfg.GetInputConfig().ChunkSize, nil)
}

func (a *App) probe(entries []queue.Entry) {
	for i := range entries {
		if err := probe.Enrich(&entries[i]); err != nil {
			a.log.Debug().Err(err).Str("url", entries[i].URL).Msg(errmsg.Format(errmsg.OpProbe, err))
		}
	}
}

func (a *App) save(ctx context.Context, source string, entries []queue.Entry) error {
	if a.state == nil {
		return errors.New(errmsg.Format(errmsg.OpQueueSave, errors.New("no state database")))
	}
	id, err := a.state.SaveBatch(ctx, source, entries)
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpQueueSave, err))
	}
	fmt.Fprintf(a.out, "saved %s\n", id)
	return nil
}

func (a *App) load(ctx context.Context, id string) error {
	if a.state == nil {
		return errors.New(errmsg.FormatWith(errmsg.OpQueueLoad, id, errors.New("no state database")))
	}
	b, err := a.state.LoadBatch(ctx, id)
	if err != nil {
		return errors.New(errmsg.FormatWith(errmsg.OpQueueLoad, id, err))
	}
	fmt.Fprintf(a.out, "%s (%s)\n", b.Source, b.CreatedAt.Format("2006-01-02 15:04"))
	a.print(b.Entries)
	return nil
}

func (a *App) list(ctx context.Context) error {
	if a.state == nil {
		return errors.New(errmsg.Format(errmsg.OpQueueList, errors.New("no state database")))
	}
	batches, err := a.state.Batches(ctx)
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpQueueList, err))
	}
	for _, b := range batches {
		fmt.Fprintf(a.out, "%s  %s  %s  %s\n", b.ID, formatAge(b.CreatedAt), formatCount(b.Count), b.Source)
	}
	return nil
}

func (a *App) delete(ctx context.Context, id string) error {
	if a.state == nil {
		return errors.New(errmsg.FormatWith(errmsg.OpQueueDelete, id, errors.New("no state database")))
	}
	if err := a.state.DeleteBatch(ctx, id); err != nil {
		return errors.New(errmsg.FormatWith(errmsg.OpQueueDelete, id, err))
	}
	fmt.Fprintf(a.out, "deleted %s\n", id)
	return nil
}
