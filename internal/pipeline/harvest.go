package pipeline

import (
	"context"
	"sort"
	"strings"

	"rustdocs/internal/crawler"
	"rustdocs/internal/model"
)

// Harvest collects every item under targets and links callers.
func Harvest(ctx context.Context, c *crawler.Crawler, targets []string) ([]*model.Item, error) {
	var items []*model.Item
	err := c.ScanProject(ctx, targets, func(item *model.Item) {
		items = append(items, item)
	})
	if err != nil {
		return nil, err
	}
	LinkCallers(items)
	return items, nil
}

// LinkCallers fills Item.Callers from the call sites of every function.
// Resolution is by name: a path call a::b() prefers functions whose fq path
// ends in a::b, a method call only matches functions declared in an impl or
// trait, and a plain call only matches free functions.
func LinkCallers(items []*model.Item) {
	byName := map[string][]*model.Item{}
	for _, it := range items {
		if it.Kind == model.KindFunction {
			byName[it.Name] = append(byName[it.Name], it)
		}
	}

	callers := map[*model.Item]map[string]bool{}
	for _, caller := range items {
		if caller.Kind != model.KindFunction {
			continue
		}
		for _, call := range caller.Calls {
			for _, target := range resolveCall(call, byName[call.Callee]) {
				if target == caller {
					continue
				}
				if callers[target] == nil {
					callers[target] = map[string]bool{}
				}
				callers[target][caller.FQPath] = true
			}
		}
	}

	for target, set := range callers {
		target.Callers = make([]string, 0, len(set))
		for fq := range set {
			target.Callers = append(target.Callers, fq)
		}
		sort.Strings(target.Callers)
	}
}

func resolveCall(call model.CallSite, candidates []*model.Item) []*model.Item {
	var out []*model.Item
	switch call.Kind {
	case "path":
		suffix := "::" + call.Qual + "::" + call.Callee
		for _, c := range candidates {
			if strings.HasSuffix(c.FQPath, suffix) {
				out = append(out, c)
			}
		}
	case "method":
		for _, c := range candidates {
			if isAssociated(c) {
				out = append(out, c)
			}
		}
	default:
		for _, c := range candidates {
			if !isAssociated(c) {
				out = append(out, c)
			}
		}
	}
	return out
}

// isAssociated reports whether fn lives in an impl or trait: its fq path has
// a segment between the module path and the name.
func isAssociated(fn *model.Item) bool {
	return strings.Count(fn.FQPath, "::") > len(fn.ModulePath)+1
}
