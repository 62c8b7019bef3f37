package engine

import (
	"os"

	"sitegate/internal/config"
	"sitegate/internal/output"
)

// SetupOutput builds the sink set selected by cfg.Output. On error every
// sink opened so far is closed.
func SetupOutput(cfg *config.Config) (*output.Manager, error) {
	outMgr := output.NewManager()

	fail := func(err error) (*output.Manager, error) {
		_ = outMgr.Close()
		return nil, err
	}

	// Console Sink
	if !cfg.Output.NoConsole {
		if err := outMgr.AddSink(output.NewConsoleSink(nil, cfg.Output.ConsoleFormat, cfg.Output.ConsoleFilter)); err != nil {
			return fail(err)
		}
	}

	// Emit Sinks (additional structured streams)
	for _, emit := range cfg.Output.Emit {
		es, err := output.NewEmitSink(os.Stdout, emit)
		if err != nil {
			return fail(err)
		}
		if err := outMgr.AddSink(es); err != nil {
			return fail(err)
		}
	}

	// File Sink
	if cfg.Output.Out != "" {
		fs, err := output.NewFileSink(cfg.Output.Out, cfg.Output.OutFormat)
		if err != nil {
			return fail(err)
		}
		if err := outMgr.AddSink(fs); err != nil {
			return fail(err)
		}
	}

	// Markdown summary
	if cfg.Output.Summary != "" {
		ss, err := output.NewSummarySink(cfg.Output.Summary)
		if err != nil {
			return fail(err)
		}
		if err := outMgr.AddSink(ss); err != nil {
			return fail(err)
		}
	}

	return outMgr, nil
}
