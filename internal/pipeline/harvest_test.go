package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rustdocs/internal/crawler"
	"rustdocs/internal/extractor"
	"rustdocs/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fn(fq string, mods []string, calls ...model.CallSite) *model.Item {
	return &model.Item{Kind: model.KindFunction, Name: lastSegment(fq), FQPath: fq, ModulePath: mods, Calls: calls}
}

func lastSegment(fq string) string {
	return fq[strings.LastIndex(fq, "::")+2:]
}

func TestLinkCallers(t *testing.T) {
	helper := fn("crate::util::helper", []string{"util"})
	open := fn("crate::net::Conn::open", []string{"net"})
	otherOpen := fn("crate::open", nil)
	main := fn("crate::main", nil,
		model.CallSite{Kind: "plain", Callee: "helper"},
		model.CallSite{Kind: "path", Qual: "Conn", Callee: "open"},
		model.CallSite{Kind: "plain", Callee: "main"},
	)
	run := fn("crate::run", nil,
		model.CallSite{Kind: "method", Qual: "c", Callee: "open"},
		model.CallSite{Kind: "path", Qual: "util", Callee: "helper"},
	)
	point := &model.Item{Kind: model.KindStruct, Name: "helper", FQPath: "crate::helper"}

	LinkCallers([]*model.Item{helper, open, otherOpen, main, run, point})

	assert.Equal(t, []string{"crate::main", "crate::run"}, helper.Callers)
	assert.Equal(t, []string{"crate::main", "crate::run"}, open.Callers)
	assert.Empty(t, otherOpen.Callers, "path and method calls skip free fns")
	assert.Empty(t, main.Callers, "recursion is not a caller")
	assert.Empty(t, point.Callers)
}

func TestHarvest(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "Cargo.toml"), []byte("[package]\nname = \"demo\"\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	src := "pub fn a() { b(); }\n\nfn b() {}\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "lib.rs"), []byte(src), 0o644))

	ext, err := extractor.NewExtractor("rust")
	require.NoError(t, err)
	items, err := Harvest(context.Background(), crawler.NewCrawler(ext, nil), []string{root})
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "crate::b", items[1].FQPath)
	assert.Equal(t, "demo", items[1].Crate)
	assert.Equal(t, []string{"crate::a"}, items[1].Callers)
}
