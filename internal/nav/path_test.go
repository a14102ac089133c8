package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransition(t *testing.T) {
	full := Path{CollectionID: "c", ItemID: "i", SubItemID: "s"}

	tests := []struct {
		name  string
		from  Path
		level Level
		id    string
		want  Path
	}{
		{"open collection", Path{}, LevelCollection, "c", Path{CollectionID: "c"}},
		{"collapse collection", full, LevelCollection, "c", Path{}},
		{"switch collection clears deeper", full, LevelCollection, "d", Path{CollectionID: "d"}},
		{"open item", Path{CollectionID: "c"}, LevelItem, "i", Path{CollectionID: "c", ItemID: "i"}},
		{"collapse item keeps collection", full, LevelItem, "i", Path{CollectionID: "c"}},
		{"switch item clears sub-item", full, LevelItem, "j", Path{CollectionID: "c", ItemID: "j"}},
		{"item without collection is no-op", Path{}, LevelItem, "i", Path{}},
		{"sub-item set", Path{CollectionID: "c", ItemID: "i"}, LevelSubItem, "s", full},
		{"sub-item clear", full, LevelSubItem, "s", Path{CollectionID: "c", ItemID: "i"}},
		{"sub-item without item is no-op", Path{CollectionID: "c"}, LevelSubItem, "s", Path{CollectionID: "c"}},
		{"empty id is no-op", full, LevelItem, "", full},
		{"invalid level is no-op", full, Level(7), "x", full},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Transition(tt.from, tt.level, tt.id)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}
}

func TestPath_Normalize(t *testing.T) {
	assert.Equal(t, Path{}, Path{ItemID: "i", SubItemID: "s"}.Normalize())
	assert.Equal(t, Path{CollectionID: "c"}, Path{CollectionID: " c ", SubItemID: "s"}.Normalize())
	assert.Equal(t, Path{CollectionID: "c", ItemID: "i", SubItemID: "s"}, Path{CollectionID: "c", ItemID: "i", SubItemID: "s"}.Normalize())
}

func TestPath_ValidAndDepth(t *testing.T) {
	assert.True(t, Path{}.Valid())
	assert.False(t, Path{ItemID: "i"}.Valid())
	assert.False(t, Path{CollectionID: "c", SubItemID: "s"}.Valid())

	assert.Equal(t, 0, Path{}.Depth())
	assert.Equal(t, 2, Path{CollectionID: "c", ItemID: "i"}.Depth())
	assert.Equal(t, "/c/i", Path{CollectionID: "c", ItemID: "i"}.String())
	assert.Equal(t, "/", Path{}.String())
}

func TestHoverState(t *testing.T) {
	var h HoverState

	assert.True(t, h.Set(LevelItem, "i"))
	assert.False(t, h.Set(LevelItem, "i"), "same id is not a change")
	assert.Equal(t, "", h.At(LevelCollection), "hovering an item does not imply a hovered collection")

	h.Set(LevelCollection, "c")
	h.Set(LevelSubItem, "s")
	assert.Equal(t, Path{CollectionID: "c", ItemID: "i", SubItemID: "s"}, h.Path())

	assert.True(t, h.Leave(LevelCollection))
	assert.Equal(t, Path{ItemID: "i", SubItemID: "s"}, h.Path(), "leaving one column only clears that column")

	assert.True(t, h.ClearFrom(LevelItem))
	assert.Equal(t, Path{}, h.Path())
	assert.False(t, h.ClearFrom(LevelItem))
	assert.False(t, h.Set(Level(-1), "x"))
}
