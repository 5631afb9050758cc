// Package pipeline turns harvested items into generated doc blocks.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"rustdocs/internal/extractor"
	"rustdocs/internal/knowledge"
	"rustdocs/internal/locate"
	"rustdocs/internal/model"
	"rustdocs/internal/sanitize"
)

// Cache stores raw answers between runs. Answers are sanitized after lookup,
// so sanitizer changes apply to cached answers too.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key string, item *model.Item, answer string) error
}

type Options struct {
	Overwrite bool
	Limit     int      // 0 means no limit
	Only      []string // item names or fq paths
	NoCalls   bool
	NoPaths   bool
	Changed   map[string]bool // absolute paths; nil disables the filter
}

type Generator struct {
	Asker          knowledge.Asker
	FnTemplate     *knowledge.Template
	StructTemplate *knowledge.Template
	Cache          Cache // optional
	Sanitizer      *sanitize.Sanitizer
	Options        Options
	Logger         *slog.Logger
}

type fileSource struct {
	lines []string
	err   error
}

type run struct {
	g       *Generator
	log     *slog.Logger
	symbols map[string]bool
	fns     []*model.Item
	sources map[string]*fileSource
}

// Run generates docs for the wanted items, file by file in path order and by
// position within a file.
func (g *Generator) Run(ctx context.Context, items []*model.Item) ([]model.DocResult, error) {
	r := &run{
		g:       g,
		log:     g.Logger,
		symbols: map[string]bool{},
		sources: map[string]*fileSource{},
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	if g.Sanitizer == nil {
		g.Sanitizer = sanitize.New()
	}
	for _, it := range items {
		if it.Name != "" {
			r.symbols[it.Name] = true
		}
		if it.Kind == model.KindFunction {
			r.fns = append(r.fns, it)
		}
	}

	files, perFile := g.wanted(items)
	if len(files) == 0 && len(g.Options.Only) > 0 {
		r.log.Warn("no items matched --only filter", "only", strings.Join(g.Options.Only, ", "))
	}

	var results []model.DocResult
	processed := 0
	for _, file := range files {
		r.log.Debug("begin file", "file", file, "items", len(perFile[file]))
		for _, item := range perFile[file] {
			if err := ctx.Err(); err != nil {
				return results, err
			}
			if g.Options.Limit > 0 && processed >= g.Options.Limit {
				r.log.Info("limit reached, stopping generation", "limit", g.Options.Limit)
				return results, nil
			}
			processed++

			out, err := r.item(ctx, item)
			if err != nil {
				return results, err
			}
			results = append(results, out...)
		}
	}
	return results, nil
}

// wanted applies the kind, --only and changed-file filters and groups the
// survivors by file.
func (g *Generator) wanted(items []*model.Item) ([]string, map[string][]*model.Item) {
	perFile := map[string][]*model.Item{}
	for _, it := range items {
		if it.Kind != model.KindFunction && it.Kind != model.KindStruct {
			continue
		}
		if len(g.Options.Only) > 0 && !matchesOnly(it, g.Options.Only) {
			continue
		}
		if g.Options.Changed != nil {
			abs, err := filepath.Abs(it.File)
			if err != nil || !g.Options.Changed[filepath.Clean(abs)] {
				continue
			}
		}
		perFile[it.File] = append(perFile[it.File], it)
	}

	files := make([]string, 0, len(perFile))
	for f, list := range perFile {
		files = append(files, f)
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].Span.StartLine != list[j].Span.StartLine {
				return list[i].Span.StartLine < list[j].Span.StartLine
			}
			return list[i].FQPath < list[j].FQPath
		})
	}
	sort.Strings(files)
	return files, perFile
}

func matchesOnly(it *model.Item, only []string) bool {
	for _, s := range only {
		if s == it.Name || s == it.FQPath {
			return true
		}
	}
	return false
}

func (r *run) item(ctx context.Context, item *model.Item) ([]model.DocResult, error) {
	log := r.log.With("kind", string(item.Kind), "symbol", item.FQPath, "file", item.File, "start_line", item.Span.StartLine)
	start := time.Now()

	hadDoc := item.HadDoc()
	if hadDoc && !r.g.Options.Overwrite && item.Kind != model.KindStruct {
		// structs still proceed so their fields get docs
		log.Info("skipping: existing rustdoc present (use --overwrite to replace)", "elapsed_ms", time.Since(start).Milliseconds())
		return nil, nil
	}

	switch item.Kind {
	case model.KindFunction:
		res, err := r.function(ctx, log, item)
		if err != nil {
			return nil, err
		}
		res.HadExistingDoc = hadDoc
		log.Info("sanitized rustdoc (fn)", "doc_lines", lineCount(res.Doc), "elapsed_ms", time.Since(start).Milliseconds())
		return []model.DocResult{res}, nil
	case model.KindStruct:
		out, err := r.structure(ctx, log, item)
		if err != nil {
			return nil, err
		}
		if len(out) > 0 {
			out[0].HadExistingDoc = hadDoc
		}
		log.Info("completed struct generation", "fields", max(len(out)-1, 0), "elapsed_ms", time.Since(start).Milliseconds())
		return out, nil
	}
	return nil, nil
}

func (r *run) function(ctx context.Context, log *slog.Logger, item *model.Item) (model.DocResult, error) {
	refs := model.CollectSymbolRefs(item.BodyText, r.symbols)
	if !r.g.Options.NoPaths {
		refs = append(refs, item.Paths...)
	}
	var calls []model.CallSite
	if !r.g.Options.NoCalls {
		calls = item.Calls
	}

	question := knowledge.BuildFunctionQuestion(item, refs, calls)
	answer, err := r.ask(ctx, log, item, r.g.FnTemplate, question)
	if err != nil {
		return model.DocResult{}, err
	}

	return model.DocResult{
		Kind:              model.KindFunction,
		FQPath:            item.FQPath,
		File:              item.File,
		StartLine:         model.IntPtr(item.Span.StartLine),
		EndLine:           model.IntPtr(item.Span.EndLine),
		Signature:         item.Signature,
		Callers:           item.Callers,
		ReferencedSymbols: refs,
		Doc:               r.g.Sanitizer.Sanitize(answer),
	}, nil
}

func (r *run) structure(ctx context.Context, log *slog.Logger, item *model.Item) ([]model.DocResult, error) {
	lines, err := r.source(item.File)
	if err != nil {
		return nil, err
	}

	sig0, ok := locate.FindSigLineNear(lines, max(item.Span.StartLine-1, 0), locate.StructRe)
	if !ok {
		log.Warn("could not locate struct sig")
		return nil, nil
	}

	var fields []locate.FieldSpec
	bodyText := lines[sig0]
	if lo, hi, ok := locate.FindStructBody(lines, sig0); ok {
		bodyText = locate.ExtractLines(lines, sig0, hi)
		fields = locate.StructFields(lines, lo, hi, item.FQPath)
	} else {
		log.Debug("struct has no braced body; documenting the struct only")
	}

	refs := model.ReferencingFunctions(item.Name, item.FQPath, r.fns)
	question := knowledge.BuildStructQuestion(item, bodyText, refs)
	raw, err := r.ask(ctx, log, item, r.g.StructTemplate, question)
	if err != nil {
		return nil, err
	}

	structDoc, fieldDocs := raw, []model.FieldDoc(nil)
	if parsed, err := parseStructResponse(raw); err != nil {
		log.Warn("struct JSON parse failed; using raw payload", "error", err)
	} else {
		log.Info("parsed struct JSON", "fields", len(parsed.Fields))
		structDoc, fieldDocs = parsed.StructDoc, parsed.Fields
	}

	out := []model.DocResult{{
		Kind:      model.KindStruct,
		FQPath:    item.FQPath,
		File:      item.File,
		StartLine: model.IntPtr(item.Span.StartLine),
		EndLine:   model.IntPtr(item.Span.EndLine),
		Signature: item.Signature,
		Callers:   item.Callers,
		Doc:       r.g.Sanitizer.Sanitize(structDoc),
	}}

	index := make(map[string]locate.FieldSpec, len(fields))
	for _, f := range fields {
		index[f.Name] = f
	}
	for _, fd := range fieldDocs {
		f, ok := index[fd.Name]
		if !ok {
			log.Warn("field not found in struct body; skipping doc", "field", fd.Name)
			continue
		}
		log.Debug("prepared field doc", "field", fd.Name, "insert_line", f.InsertLine0+1)
		out = append(out, model.DocResult{
			Kind:      model.KindField,
			FQPath:    item.FQPath + "::" + fd.Name,
			File:      item.File,
			StartLine: model.IntPtr(f.InsertLine0 + 1),
			Signature: f.FieldLineText,
			Doc:       r.g.Sanitizer.Sanitize(fd.Doc),
		})
	}
	return out, nil
}

// ask consults the cache before the model. Cache failures are logged and
// otherwise ignored.
func (r *run) ask(ctx context.Context, log *slog.Logger, item *model.Item, tpl *knowledge.Template, question string) (string, error) {
	if tpl == nil {
		return "", fmt.Errorf("%s: no template for %s items", item.FQPath, item.Kind)
	}
	key := extractor.CacheKey(item, tpl.Name)
	if r.g.Cache != nil {
		answer, ok, err := r.g.Cache.Get(ctx, key)
		if err != nil {
			log.Warn("cache lookup failed", "error", err)
		} else if ok {
			log.Debug("cache hit")
			return answer, nil
		}
	}

	log.Debug("sending LLM request", "question_len", len(question), "template", tpl.Name)
	start := time.Now()
	answer, err := r.g.Asker.Ask(ctx, tpl, question)
	if err != nil {
		return "", fmt.Errorf("%s: LLM request failed: %w", item.FQPath, err)
	}
	log.Debug("received LLM response", "answer_len", len(answer), "llm_ms", time.Since(start).Milliseconds())

	if r.g.Cache != nil {
		if err := r.g.Cache.Put(ctx, key, item, answer); err != nil {
			log.Warn("cache store failed", "error", err)
		}
	}
	return answer, nil
}

func (r *run) source(path string) ([]string, error) {
	if src, ok := r.sources[path]; ok {
		return src.lines, src.err
	}
	data, err := os.ReadFile(path)
	src := &fileSource{err: err}
	if err != nil {
		src.err = fmt.Errorf("failed to read %s: %w", path, err)
	} else {
		src.lines = locate.SplitLines(string(data))
	}
	r.sources[path] = src
	return src.lines, src.err
}

// parseStructResponse accepts the JSON object alone or wrapped in prose,
// reasoning tags or a code fence.
func parseStructResponse(raw string) (model.StructDocResponse, error) {
	var resp model.StructDocResponse
	err := json.Unmarshal([]byte(raw), &resp)
	if err == nil {
		return resp, nil
	}
	lo, hi := strings.Index(raw, "{"), strings.LastIndex(raw, "}")
	if lo < 0 || hi <= lo {
		return resp, err
	}
	if err2 := json.Unmarshal([]byte(raw[lo:hi+1]), &resp); err2 != nil {
		return resp, err
	}
	return resp, nil
}

func lineCount(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
