package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"rustdocs/internal/knowledge"
	"rustdocs/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAsker struct {
	answers   map[string]string // template name -> answer
	questions []string
	err       error
}

func (f *fakeAsker) Ask(_ context.Context, tpl *knowledge.Template, question string) (string, error) {
	f.questions = append(f.questions, question)
	if f.err != nil {
		return "", f.err
	}
	return f.answers[tpl.Name], nil
}

type memCache struct {
	data   map[string]string
	getErr error
}

func (c *memCache) Get(_ context.Context, key string) (string, bool, error) {
	if c.getErr != nil {
		return "", false, c.getErr
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Put(_ context.Context, key string, _ *model.Item, answer string) error {
	c.data[key] = answer
	return nil
}

const libSource = `pub struct Config {
    pub name: String,
    #[serde(default)]
    pub retries: u32,
}

pub fn load(path: &str) -> Config {
    Config { name: path.to_string(), retries: 0 }
}

/// Already documented.
pub fn ready() -> bool {
    true
}
`

func fixture(t *testing.T) []*model.Item {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lib.rs")
	require.NoError(t, os.WriteFile(path, []byte(libSource), 0o644))

	return []*model.Item{
		{
			Kind: model.KindFunction, Name: "ready", FQPath: "crate::ready", File: path,
			Span: model.Span{StartLine: 12, EndLine: 14}, Signature: "pub fn ready() -> bool",
			HasBody: true, Doc: "Already documented.", BodyText: "{\n    true\n}",
		},
		{
			Kind: model.KindStruct, Name: "Config", FQPath: "crate::Config", File: path,
			Span: model.Span{StartLine: 1, EndLine: 5}, Signature: "pub struct Config",
		},
		{
			Kind: model.KindFunction, Name: "load", FQPath: "crate::load", File: path,
			Span: model.Span{StartLine: 7, EndLine: 9}, Signature: "pub fn load(path: &str) -> Config",
			HasBody: true, BodyText: "{\n    Config { name: path.to_string(), retries: 0 }\n}",
			Calls: []model.CallSite{{Kind: "method", Qual: "path", Callee: "to_string"}},
			Paths: []string{"std::fs::read"},
		},
	}
}

func newGenerator(asker knowledge.Asker) *Generator {
	return &Generator{
		Asker:          asker,
		FnTemplate:     &knowledge.Template{Name: "rustdoc_fn"},
		StructTemplate: &knowledge.Template{Name: "rustdoc_struct"},
	}
}

func answers() map[string]string {
	return map[string]string{
		"rustdoc_fn":     "<think>hmm</think>\nLoads the config.",
		"rustdoc_struct": `{"struct_doc": "Runtime settings.", "fields": [{"name": "name", "doc": "Display name."}, {"name": "retries", "doc": "Retry budget."}, {"name": "ghost", "doc": "Not there."}]}`,
	}
}

func TestGenerator_Run(t *testing.T) {
	items := fixture(t)
	asker := &fakeAsker{answers: answers()}

	results, err := newGenerator(asker).Run(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, results, 4)

	t.Run("ordered by position", func(t *testing.T) {
		var fqs []string
		for _, r := range results {
			fqs = append(fqs, r.FQPath)
		}
		assert.Equal(t, []string{"crate::Config", "crate::Config::name", "crate::Config::retries", "crate::load"}, fqs)
	})

	t.Run("struct and fields", func(t *testing.T) {
		assert.Equal(t, model.KindStruct, results[0].Kind)
		assert.Equal(t, "/// Runtime settings.", results[0].Doc)
		assert.Equal(t, 1, results[0].Line())

		name := results[1]
		assert.Equal(t, model.KindField, name.Kind)
		assert.Equal(t, 2, name.Line())
		assert.Equal(t, "    pub name: String,", name.Signature)
		assert.Equal(t, "/// Display name.", name.Doc)

		retries := results[2]
		assert.Equal(t, 3, retries.Line(), "fields insert above their attributes")
		assert.Equal(t, "/// Retry budget.", retries.Doc)
	})

	t.Run("function", func(t *testing.T) {
		load := results[3]
		assert.Equal(t, model.KindFunction, load.Kind)
		assert.Equal(t, "/// Loads the config.", load.Doc)
		assert.Equal(t, 7, load.Line())
		assert.Equal(t, 9, *load.EndLine)
		assert.Contains(t, load.ReferencedSymbols, "Config")
		assert.Contains(t, load.ReferencedSymbols, "std::fs::read")
		assert.False(t, load.HadExistingDoc)
	})

	t.Run("documented function skipped", func(t *testing.T) {
		assert.Len(t, asker.questions, 2)
	})

	t.Run("struct prompt lists referencing functions", func(t *testing.T) {
		assert.Contains(t, asker.questions[0], "crate::load")
		assert.Contains(t, asker.questions[0], "pub retries: u32")
	})
}

func TestGenerator_Overwrite(t *testing.T) {
	items := fixture(t)
	g := newGenerator(&fakeAsker{answers: answers()})
	g.Options.Overwrite = true

	results, err := g.Run(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, results, 5)

	ready := results[4]
	assert.Equal(t, "crate::ready", ready.FQPath)
	assert.True(t, ready.HadExistingDoc)
}

func TestGenerator_Filters(t *testing.T) {
	t.Run("only", func(t *testing.T) {
		g := newGenerator(&fakeAsker{answers: answers()})
		g.Options.Only = []string{"load"}
		results, err := g.Run(context.Background(), fixture(t))
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "crate::load", results[0].FQPath)
	})

	t.Run("only with no match", func(t *testing.T) {
		g := newGenerator(&fakeAsker{answers: answers()})
		g.Options.Only = []string{"crate::missing"}
		results, err := g.Run(context.Background(), fixture(t))
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("limit counts items", func(t *testing.T) {
		asker := &fakeAsker{answers: answers()}
		g := newGenerator(asker)
		g.Options.Limit = 1
		results, err := g.Run(context.Background(), fixture(t))
		require.NoError(t, err)
		require.Len(t, results, 3, "struct plus its two fields")
		assert.Len(t, asker.questions, 1)
	})

	t.Run("changed files", func(t *testing.T) {
		g := newGenerator(&fakeAsker{answers: answers()})
		g.Options.Changed = map[string]bool{"/elsewhere/lib.rs": true}
		results, err := g.Run(context.Background(), fixture(t))
		require.NoError(t, err)
		assert.Empty(t, results)

		items := fixture(t)
		g.Options.Changed = map[string]bool{items[0].File: true}
		results, err = g.Run(context.Background(), items)
		require.NoError(t, err)
		assert.Len(t, results, 4)
	})

	t.Run("no calls and no paths", func(t *testing.T) {
		asker := &fakeAsker{answers: answers()}
		g := newGenerator(asker)
		g.Options.Only = []string{"load"}
		g.Options.NoCalls = true
		g.Options.NoPaths = true
		results, err := g.Run(context.Background(), fixture(t))
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.NotContains(t, results[0].ReferencedSymbols, "std::fs::read")
		assert.NotContains(t, asker.questions[0], "Function Calls Inside")
	})
}

func TestGenerator_Cache(t *testing.T) {
	cache := &memCache{data: map[string]string{}}
	asker := &fakeAsker{answers: answers()}
	g := newGenerator(asker)
	g.Cache = cache
	g.Options.Only = []string{"load"}

	first, err := g.Run(context.Background(), fixture(t))
	require.NoError(t, err)
	require.Len(t, cache.data, 1)
	for _, raw := range cache.data {
		assert.Contains(t, raw, "<think>", "raw answers are cached")
	}

	second, err := g.Run(context.Background(), fixture(t))
	require.NoError(t, err)
	assert.Len(t, asker.questions, 1, "second run is served from cache")
	assert.Equal(t, first[0].Doc, second[0].Doc)

	t.Run("lookup failure falls through", func(t *testing.T) {
		cache.getErr = errors.New("disk gone")
		_, err := g.Run(context.Background(), fixture(t))
		require.NoError(t, err)
		assert.Len(t, asker.questions, 2)
	})
}

func TestGenerator_StructFallbacks(t *testing.T) {
	t.Run("json wrapped in prose", func(t *testing.T) {
		asker := &fakeAsker{answers: map[string]string{
			"rustdoc_struct": "Here it is:\n```json\n{\"struct_doc\": \"Settings.\", \"fields\": [{\"name\": \"name\", \"doc\": \"Name.\"}]}\n```",
		}}
		g := newGenerator(asker)
		g.Options.Only = []string{"Config"}
		results, err := g.Run(context.Background(), fixture(t))
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "/// Settings.", results[0].Doc)
		assert.Equal(t, "/// Name.", results[1].Doc)
	})

	t.Run("not json at all", func(t *testing.T) {
		asker := &fakeAsker{answers: map[string]string{"rustdoc_struct": "Holds settings."}}
		g := newGenerator(asker)
		g.Options.Only = []string{"Config"}
		results, err := g.Run(context.Background(), fixture(t))
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "/// Holds settings.", results[0].Doc)
	})

	t.Run("signature not found", func(t *testing.T) {
		items := fixture(t)
		items[1].Span.StartLine = 12
		g := newGenerator(&fakeAsker{answers: answers()})
		g.Options.Only = []string{"Config"}
		results, err := g.Run(context.Background(), items)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestGenerator_AskError(t *testing.T) {
	g := newGenerator(&fakeAsker{err: knowledge.ErrEmptyResponse})
	g.Options.Only = []string{"load"}
	_, err := g.Run(context.Background(), fixture(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, knowledge.ErrEmptyResponse)
	assert.Contains(t, err.Error(), "crate::load")
}

func TestGenerator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newGenerator(&fakeAsker{answers: answers()}).Run(ctx, fixture(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseStructResponse(t *testing.T) {
	resp, err := parseStructResponse(`{"struct_doc":"S","fields":[]}`)
	require.NoError(t, err)
	assert.Equal(t, "S", resp.StructDoc)

	_, err = parseStructResponse("no braces")
	assert.Error(t, err)

	_, err = parseStructResponse("} backwards {")
	assert.Error(t, err)
}
