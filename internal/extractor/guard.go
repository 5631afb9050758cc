package extractor

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
)

// ErrSyntax is returned by SyntaxGuard when an edit breaks a file that parsed cleanly.
var ErrSyntax = errors.New("edit introduces a syntax error")

// SyntaxGuard re-parses a file after patching. Files that already had parse
// errors are let through; there is nothing to compare against.
type SyntaxGuard struct{}

func (SyntaxGuard) Check(path string, before, after []byte) error {
	ctx := context.Background()
	if _, bad, err := firstError(ctx, before); err != nil || bad {
		return err
	}
	row, bad, err := firstError(ctx, after)
	if err != nil {
		return fmt.Errorf("failed to parse file %s: %w", path, err)
	}
	if bad {
		return fmt.Errorf("%s:%d: %w", path, row+1, ErrSyntax)
	}
	return nil
}

// firstError parses src and returns the row of the first error or missing node.
func firstError(ctx context.Context, src []byte) (uint32, bool, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(rust.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return 0, false, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return 0, false, nil
	}
	row := root.StartPoint().Row
	found := false
	walkAll(root, func(n *sitter.Node) bool {
		if found {
			return false
		}
		if n.IsError() || n.IsMissing() {
			row, found = n.StartPoint().Row, true
			return false
		}
		return n.HasError()
	})
	return row, true, nil
}

// walkAll is walk over every child, anonymous ones included; MISSING tokens
// are not named.
func walkAll(n *sitter.Node, visit func(*sitter.Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		walkAll(n.Child(i), visit)
	}
}
