package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fouche-Hugo/draft-together/internal/champion"
)

func TestChampionRow_ToChampion(t *testing.T) {
	row := championRow{
		ID:                           1,
		RiotID:                       "Ahri",
		Name:                         "Ahri",
		DefaultSkinImagePath:         "/img/ahri_0.jpg",
		CenteredDefaultSkinImagePath: "/img/ahri_0_centered.jpg",
		RolesJSON:                    []byte(`["MID"]`),
	}

	c, err := row.toChampion()
	require.NoError(t, err)

	assert.Equal(t, 1, c.ID)
	assert.Equal(t, "Ahri", c.RiotID)
	assert.Equal(t, []champion.Role{champion.Mid}, c.Roles)
}

func TestChampionRow_ToChampion_EmptyRoles(t *testing.T) {
	row := championRow{ID: 2, RiotID: "Zed", Name: "Zed"}

	c, err := row.toChampion()
	require.NoError(t, err)
	assert.Empty(t, c.Roles)
}

func TestChampionRow_ToChampion_InvalidRolesJSON(t *testing.T) {
	row := championRow{ID: 3, RiotID: "Zed", RolesJSON: []byte(`not-json`)}

	_, err := row.toChampion()
	assert.Error(t, err)
}
