// Package walker drives the traversal of a process's module chain and of each
// module's dynamic section.
package walker

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/grafana/dynwalk/pkg/dynamic"
	"github.com/grafana/dynwalk/pkg/elfinfo"
	"github.com/grafana/dynwalk/pkg/linkmap"
	"github.com/grafana/dynwalk/pkg/metrics"
	"github.com/grafana/dynwalk/pkg/procmaps"
)

// DefaultSymbol is the function looked up when none is configured.
const DefaultSymbol = "vfprintf"

// MappingFinder finds the memory mapping containing an address.
type MappingFinder interface {
	Find(addr uint64) (procmaps.Mapping, bool)
}

// ObjectInspector reads the on-disk object backing a module.
type ObjectInspector interface {
	Inspect(m linkmap.Module) (elfinfo.Info, error)
}

type Options struct {
	// Symbol is the function whose address the walk tries to find.
	Symbol string

	// Mappings and Objects are optional enrichments reported per module.
	Mappings MappingFinder
	Objects  ObjectInspector

	Metrics *metrics.Metrics
}

// Result is everything a walk observed.
type Result struct {
	Debug   linkmap.Debug
	Modules []ModuleReport
	Symbol  SymbolResult
}

// Entries returns the number of non-terminator dynamic entries walked.
func (r *Result) Entries() int {
	n := 0
	for _, m := range r.Modules {
		n += len(m.Entries)
	}
	return n
}

type ModuleReport struct {
	Index   int
	Module  linkmap.Module
	Entries []EntryReport

	Mapping    *procmaps.Mapping
	Object     *elfinfo.Info
	Incomplete bool
}

type EntryReport struct {
	Index  int
	Entry  dynamic.Entry
	Name   string
	Value  dynamic.Value
	Target dynamic.Target
}

// SymbolResult is the outcome of looking up Options.Symbol. Matching a name
// requires decoding the symbol, string and hash tables together, which the
// walk does not do, so Found is always false.
type SymbolResult struct {
	Name  string
	Addr  uint64
	Found bool
}

type Walker struct {
	logger   log.Logger
	reader   *linkmap.Reader
	resolver dynamic.PointerResolver
	opts     Options
}

func New(logger log.Logger, reader *linkmap.Reader, opts Options) *Walker {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if opts.Symbol == "" {
		opts.Symbol = DefaultSymbol
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewMetrics(nil)
	}
	return &Walker{
		logger:   logger,
		reader:   reader,
		resolver: reader.Layout().Resolver(),
		opts:     opts,
	}
}

// Walk visits every module reachable from the r_debug at debugAddr and every
// entry of each module's dynamic section. On a read error the partial result
// is returned along with the error.
func (w *Walker) Walk(ctx context.Context, debugAddr uint64) (*Result, error) {
	res := &Result{Symbol: SymbolResult{Name: w.opts.Symbol}}

	debug, err := w.reader.ReadDebug(debugAddr)
	if err != nil {
		w.opts.Metrics.WalkErrors.Inc()
		return res, fmt.Errorf("reading r_debug: %w", err)
	}
	res.Debug = debug
	level.Info(w.logger).Log(
		"msg", "linker debug interface",
		"r_version", debug.Version,
		"r_map", hex(debug.Map),
		"r_brk", hex(debug.Brk),
		"r_state", debug.State,
		"r_ldbase", hex(debug.LdBase),
	)

	modules := w.reader.Modules(debug.Map)
	for modules.Next() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		report := ModuleReport{Index: modules.Index(), Module: modules.Value()}
		err := w.walkModule(&report)
		res.Modules = append(res.Modules, report)
		w.opts.Metrics.ModulesWalked.Inc()
		if err != nil {
			w.opts.Metrics.WalkErrors.Inc()
			return res, fmt.Errorf("module %d (%q): %w", report.Index, report.Module.Path, err)
		}
	}
	if err := modules.Err(); err != nil {
		w.opts.Metrics.WalkErrors.Inc()
		return res, fmt.Errorf("walking module chain: %w", err)
	}

	level.Info(w.logger).Log(
		"msg", "symbol lookup",
		"symbol", res.Symbol.Name,
		"addr", hex(res.Symbol.Addr),
		"found", res.Symbol.Found,
	)
	return res, nil
}

func (w *Walker) walkModule(report *ModuleReport) error {
	m := report.Module
	logger := log.With(w.logger, "module", report.Index)

	kv := []interface{}{
		"msg", "module",
		"path", m.Path,
		"addr", hex(m.Bias),
		"ld", hex(m.Dynamic),
	}
	kv = append(kv, w.enrich(logger, report)...)
	level.Info(logger).Log(kv...)

	interp := dynamic.NewInterpreter(logger, w.reader, w.resolver)
	entries := w.reader.Entries(m.Dynamic)
	for entries.Next() {
		e := entries.Value()
		er := EntryReport{
			Index: entries.Index(),
			Entry: e,
			Name:  dynamic.TagName(e.Tag),
			Value: dynamic.Decode(e, m.Bias, w.resolver),
		}
		level.Info(logger).Log(
			"msg", "dynamic entry",
			"index", er.Index,
			"tag", er.Name,
			"tag_value", e.Tag,
			"d_ptr", hex(e.Raw),
			"value", er.Value,
		)
		w.opts.Metrics.EntriesWalked.WithLabelValues(er.Name).Inc()

		target, err := interp.Interpret(e, m)
		if err != nil {
			report.Incomplete = true
			return fmt.Errorf("entry %d: %w", er.Index, err)
		}
		er.Target = target
		if target.Kind != dynamic.TargetIgnored {
			w.opts.Metrics.TargetsResolved.WithLabelValues(target.Kind.String()).Inc()
		}
		report.Entries = append(report.Entries, er)
	}
	if err := entries.Err(); err != nil {
		report.Incomplete = true
		return fmt.Errorf("walking dynamic section at %#x: %w", m.Dynamic, err)
	}
	return nil
}

// enrich fills the optional parts of report and returns them as log fields.
// Failures here never stop the walk.
func (w *Walker) enrich(logger log.Logger, report *ModuleReport) []interface{} {
	var kv []interface{}
	m := report.Module

	if w.opts.Mappings != nil {
		if mapping, ok := w.opts.Mappings.Find(m.Dynamic); ok {
			report.Mapping = &mapping
			kv = append(kv, "mapping", mapping.Pathname, "perms", mapping.Perms)
		}
	}

	if w.opts.Objects != nil {
		info, err := w.opts.Objects.Inspect(m)
		switch {
		case err == nil:
			report.Object = &info
			w.opts.Metrics.ObjectLookups.WithLabelValues("ok").Inc()
			kv = append(kv, "build_id", info.BuildID, "dynamic_matches", info.DynamicMatches(m))
		case errors.Is(err, elfinfo.ErrNoBackingFile):
			w.opts.Metrics.ObjectLookups.WithLabelValues("no_file").Inc()
		default:
			w.opts.Metrics.ObjectLookups.WithLabelValues("error").Inc()
			level.Debug(logger).Log("msg", "inspecting module object failed", "path", m.Path, "err", err)
		}
	}
	return kv
}

func hex(v uint64) string {
	return fmt.Sprintf("%#x", v)
}
