package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/grafana/dynwalk/pkg/config"
	"github.com/grafana/dynwalk/pkg/elfinfo"
	"github.com/grafana/dynwalk/pkg/linkmap"
	"github.com/grafana/dynwalk/pkg/logging"
	"github.com/grafana/dynwalk/pkg/metrics"
	"github.com/grafana/dynwalk/pkg/procmaps"
	"github.com/grafana/dynwalk/pkg/walker"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/procfs"
	gopsutil "github.com/shirou/gopsutil/v3/process"
)

var errNoProcess = errors.New("no such process")

// run performs one traversal of the process named by cfg.
func run(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	logger, err := logging.New(stderr, cfg.Log)
	if err != nil {
		return err
	}

	if cfg.PID != 0 {
		if err := checkTarget(logger, cfg.PID); err != nil {
			return err
		}
	}

	proc, err := linkmap.InspectProcess(cfg.PID)
	if err != nil {
		level.Error(logger).Log("msg", "failed to inspect process", "pid", cfg.PID, "err", err)
		return err
	}
	mem, release, err := proc.Memory()
	if err != nil {
		level.Error(logger).Log("msg", "failed to open process memory", "pid", cfg.PID, "err", err)
		return err
	}
	defer release()

	debugAddr, err := proc.Locate(mem)
	if err != nil {
		level.Error(logger).Log("msg", "failed to locate r_debug", "pid", cfg.PID, "err", err)
		return err
	}
	level.Debug(logger).Log("msg", "located r_debug", "addr", fmt.Sprintf("%#x", debugAddr), "class", proc.Layout.Class)

	reg := prometheus.NewRegistry()
	opts := walker.Options{
		Symbol:  cfg.Symbol,
		Metrics: metrics.NewMetrics(reg),
	}
	if cfg.Enrich.Maps {
		if table, err := procmaps.Load(procfs.DefaultMountPoint, cfg.PID); err != nil {
			level.Warn(logger).Log("msg", "failed to read memory mappings, continuing without them", "err", err)
		} else {
			opts.Mappings = table
		}
	}
	if cfg.Enrich.BuildID {
		opts.Objects = elfinfo.NewInspector(log.With(logger, "component", "elfinfo"), proc)
	}

	res, walkErr := walker.New(logger, linkmap.NewReader(mem, proc.Layout), opts).Walk(ctx, debugAddr)
	if walkErr != nil {
		level.Error(logger).Log("msg", "walk stopped early", "modules", len(res.Modules), "err", walkErr)
	}

	var errs *multierror.Error
	errs = multierror.Append(errs, walkErr)
	if cfg.Summary {
		if err := printSummary(stdout, res); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("printing summary: %w", err))
		}
	}
	if cfg.MetricsTextfile != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsTextfile, reg); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("writing metrics: %w", err))
		}
	}
	return errs.ErrorOrNil()
}

// checkTarget fails early for a pid that is gone and logs what the target is.
func checkTarget(logger log.Logger, pid int) error {
	exists, err := gopsutil.PidExists(int32(pid))
	if err != nil {
		level.Warn(logger).Log("msg", "failed to check if process is alive", "pid", pid, "err", err)
		return nil
	}
	if !exists {
		level.Error(logger).Log("msg", "target process not found", "pid", pid)
		return fmt.Errorf("pid %d: %w", pid, errNoProcess)
	}

	p, err := gopsutil.NewProcess(int32(pid))
	if err != nil {
		return nil
	}
	name, _ := p.Name()
	exe, _ := p.Exe()
	level.Info(logger).Log("msg", "target process", "pid", pid, "name", name, "exe", exe)
	return nil
}
