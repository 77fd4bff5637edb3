// Package catalog defines the read-only view of the relational archive that
// the search subsystem consumes: the indexable entity kinds, their accessor
// contract, and row sources used for bulk reindexing.
package catalog

import (
	"context"
	"strings"
)

// Kind tags an indexable item kind. Each kind owns one index namespace.
type Kind string

const (
	KindPoem       Kind = "POEM"
	KindSection    Kind = "SECTION"
	KindShortStory Kind = "SHORT_STORY"
	KindPlay       Kind = "PLAY"
	KindDialogue   Kind = "DILI"
	KindAuthor     Kind = "AUTHOR"
	KindCharacter  Kind = "CHARACTER"
)

// Kinds returns every namespace kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindPoem, KindSection, KindShortStory, KindPlay, KindDialogue, KindAuthor, KindCharacter}
}

// ParseKind resolves a kind name case-insensitively.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, true
		}
	}
	return "", false
}

// Item is the narrow accessor contract every indexable entity satisfies.
type Item interface {
	Kind() Kind
	ItemID() int64
}

// Source streams entities from the relational store. Stream must call fn once
// per row and stop at the first error fn returns.
type Source interface {
	Stream(ctx context.Context, kind Kind, fn func(Item) error) error
	Get(ctx context.Context, kind Kind, id int64) (Item, error)
}
