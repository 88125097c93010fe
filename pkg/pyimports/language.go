package pyimports

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/alexaandru/go-sitter-forest/python"
)

// Sentinel errors for grammar and parser setup.
var (
	errLanguageNotAvailable = errors.New("python grammar not available")
	errPoolType             = errors.New("parser pool returned unexpected type")
	errNoRootNode           = errors.New("no root node")
)

var (
	languageOnce sync.Once
	languageVal  *sitter.Language
)

// pythonLanguage returns the tree-sitter Python language, loading it once.
func pythonLanguage() (*sitter.Language, error) {
	languageOnce.Do(func() {
		defer func() {
			_ = recover() //nolint:errcheck // recover() returns any, not error
		}()

		languageVal = sitter.NewLanguage(python.GetLanguage())
	})

	if languageVal == nil {
		return nil, errLanguageNotAvailable
	}

	return languageVal, nil
}

// parserPool hands out tree-sitter parsers bound to the Python grammar.
// A tree-sitter parser is not safe for concurrent use, so each worker
// borrows one for the duration of a single parse.
type parserPool struct {
	pool sync.Pool
}

func newParserPool(lang *sitter.Language) *parserPool {
	return &parserPool{
		pool: sync.Pool{
			New: func() any {
				tsParser := sitter.NewParser()
				tsParser.SetLanguage(lang)

				return tsParser
			},
		},
	}
}

// parse runs fn against the syntax tree of content. The tree is released
// when fn returns, so fn must not retain nodes.
func (pp *parserPool) parse(ctx context.Context, content []byte, fn func(root sitter.Node) error) error {
	tsParser, ok := pp.pool.Get().(*sitter.Parser)
	if !ok {
		return errPoolType
	}

	defer pp.pool.Put(tsParser)

	tree, err := tsParser.ParseString(ctx, nil, content)
	if err != nil {
		return fmt.Errorf("tree-sitter: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return errNoRootNode
	}

	return fn(root)
}
