package model

// ItemKind distinguishes the two kinds of board cards.
type ItemKind string

const (
	KindScene ItemKind = "scene"
	KindBeat  ItemKind = "beat"
)

// Valid reports whether k is a known kind.
func (k ItemKind) Valid() bool {
	return k == KindScene || k == KindBeat
}
