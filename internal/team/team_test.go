package team

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"loungepos/internal/models"
)

func testStations() []models.Station {
	return []models.Station{
		{ID: "a", Name: "PS5 A", Kind: models.KindConsole, TeamID: "red"},
		{ID: "b", Name: "PS5 B", Kind: models.KindConsole, TeamID: "red"},
		{ID: "c", Name: "Pool 1", Kind: models.KindBilliard},
		{ID: "d", Name: "PS5 C", Kind: models.KindConsole, TeamID: "blue"},
		{ID: "e", Name: "PS5 D", Kind: models.KindConsole, TeamID: "blue"},
	}
}

func TestTeammatesOf(t *testing.T) {
	all := testStations()

	t.Run("SameTeam", func(t *testing.T) {
		mates := TeammatesOf(all[0], all)
		assert.Len(t, mates, 1)
		assert.Equal(t, "b", mates[0].ID)
	})

	t.Run("NoTeam", func(t *testing.T) {
		assert.Empty(t, TeammatesOf(all[2], all))
	})

	t.Run("DanglingTeamID", func(t *testing.T) {
		orphan := models.Station{ID: "x", TeamID: "ghost"}
		assert.Empty(t, TeammatesOf(orphan, all))
	})
}

func TestHasConflict(t *testing.T) {
	all := testStations()

	t.Run("TeammateSelected", func(t *testing.T) {
		assert.True(t, HasConflict(all[1], []string{"a"}, all))
	})

	t.Run("NoTeammateSelected", func(t *testing.T) {
		assert.False(t, HasConflict(all[1], []string{"c", "d"}, all))
	})

	t.Run("SelfSelectionIsNotConflict", func(t *testing.T) {
		assert.False(t, HasConflict(all[0], []string{"a"}, all))
	})

	t.Run("NoTeam", func(t *testing.T) {
		assert.False(t, HasConflict(all[2], []string{"a", "b", "d"}, all))
	})
}

func TestHiddenStations(t *testing.T) {
	all := testStations()

	t.Run("TeamMemberSelected", func(t *testing.T) {
		assert.Equal(t, []string{"b"}, HiddenStations([]string{"a"}, all))
	})

	t.Run("StandaloneSelected", func(t *testing.T) {
		assert.Empty(t, HiddenStations([]string{"c"}, all))
	})

	t.Run("MultipleTeams", func(t *testing.T) {
		assert.Equal(t, []string{"b", "e"}, HiddenStations([]string{"a", "d"}, all))
	})

	t.Run("UnknownIDIgnored", func(t *testing.T) {
		assert.Empty(t, HiddenStations([]string{"nope"}, all))
	})
}

func TestSelectedTeamSize(t *testing.T) {
	all := testStations()

	assert.Equal(t, 1, SelectedTeamSize(all[0], []string{"a"}, all))
	assert.Equal(t, 2, SelectedTeamSize(all[0], []string{"a", "b"}, all))
	assert.Equal(t, 1, SelectedTeamSize(all[0], []string{"a", "d"}, all))
	assert.Equal(t, 1, SelectedTeamSize(all[2], []string{"a", "b", "c"}, all))
}
