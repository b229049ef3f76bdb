package suggest

import (
	"errors"
	"fmt"

	"github.com/japaniel/ownsync/pkg/dump"
)

// ActionKind is the closed set of suggestion actions.
type ActionKind int

const (
	// ActionUnsupported is any action name not listed below.
	ActionUnsupported ActionKind = iota
	ActionAddWord
	ActionAddGloss
	ActionAddExample
	ActionRemoveWord
	ActionRemoveGloss
	ActionRemoveExample
	// ActionComment carries discussion only and never changes the dump.
	ActionComment
)

var actionNames = map[string]ActionKind{
	"add-word-pt":       ActionAddWord,
	"add-gloss-pt":      ActionAddGloss,
	"add-example-pt":    ActionAddExample,
	"remove-word-pt":    ActionRemoveWord,
	"remove-gloss-pt":   ActionRemoveGloss,
	"remove-example-pt": ActionRemoveExample,
	"comment":           ActionComment,
}

// ParseAction maps an action name to its kind.
func ParseAction(name string) ActionKind {
	if k, ok := actionNames[name]; ok {
		return k
	}
	return ActionUnsupported
}

func (k ActionKind) String() string {
	for name, kind := range actionNames {
		if kind == k {
			return name
		}
	}
	return "unsupported"
}

var (
	errFieldAbsent = errors.New("attribute not in synset")
	errValueAbsent = errors.New("value not in attribute")
)

type patchFunc func(s *dump.Synset, value string) error

func add(f dump.Field) patchFunc {
	return func(s *dump.Synset, value string) error {
		return s.Append(f, value)
	}
}

func remove(f dump.Field) patchFunc {
	return func(s *dump.Synset, value string) error {
		if !s.Has(f) {
			return fmt.Errorf("%w: %s", errFieldAbsent, f)
		}
		if !s.RemoveFirst(f, value) {
			return fmt.Errorf("%w: %q not in %s %q", errValueAbsent, value, f, s.Items(f))
		}
		return nil
	}
}

// handlers covers every kind that edits the dump. Comment and unsupported
// kinds have no handler.
var handlers = map[ActionKind]patchFunc{
	ActionAddWord:       add(dump.WordPT),
	ActionAddGloss:      add(dump.GlossPT),
	ActionAddExample:    add(dump.ExamplePT),
	ActionRemoveWord:    remove(dump.WordPT),
	ActionRemoveGloss:   remove(dump.GlossPT),
	ActionRemoveExample: remove(dump.ExamplePT),
}
