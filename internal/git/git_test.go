package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiff = `diff --git a/src/lib.rs b/src/lib.rs
index 83db48f..bf269f4 100644
--- a/src/lib.rs
+++ b/src/lib.rs
@@ -3,0 +4,2 @@ pub mod net;
+pub fn added() {}
+
@@ -10 +12 @@ fn b() {
-    old();
+    new();
@@ -20,3 +22,0 @@ fn c() {
diff --git a/src/gone.rs b/src/gone.rs
deleted file mode 100644
index 1111111..0000000
--- a/src/gone.rs
+++ /dev/null
@@ -1,2 +0,0 @@
-fn gone() {}
-
`

func TestParseDiff(t *testing.T) {
	changes, err := parseDiff([]byte(sampleDiff))
	require.NoError(t, err)
	require.Len(t, changes, 2)

	assert.Equal(t, "src/lib.rs", changes[0].Path)
	assert.Equal(t, []int{4, 5, 12}, changes[0].ChangedLines)
	assert.False(t, changes[0].Deleted)

	assert.Equal(t, "src/gone.rs", changes[1].Path)
	assert.True(t, changes[1].Deleted)
	assert.Empty(t, changes[1].ChangedLines)

	set := ChangedSet(changes)
	assert.True(t, set["src/lib.rs"])
	assert.False(t, set["src/gone.rs"])
}

func TestParseDiff_Empty(t *testing.T) {
	changes, err := parseDiff(nil)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func gitCmd(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=t", "GIT_AUTHOR_EMAIL=t@example.com",
		"GIT_COMMITTER_NAME=t", "GIT_COMMITTER_EMAIL=t@example.com",
	)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
}

func TestGetChangedFiles(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	gitCmd(t, dir, "init", "-q")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "lib.rs"), []byte("fn a() {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hi\n"), 0o644))
	gitCmd(t, dir, "add", ".")
	gitCmd(t, dir, "commit", "-q", "-m", "init")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "lib.rs"), []byte("fn a() {}\nfn b() {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("changed\n"), 0o644))

	changes, err := GetChangedFiles(context.Background(), dir, "HEAD")
	require.NoError(t, err)
	require.Len(t, changes, 1, "only Rust files are reported")
	assert.Equal(t, "lib.rs", filepath.Base(changes[0].Path))
	assert.True(t, filepath.IsAbs(changes[0].Path))
	assert.Equal(t, []int{2}, changes[0].ChangedLines)

	_, err = GetChangedFiles(context.Background(), dir, "no-such-ref")
	assert.Error(t, err)
}
