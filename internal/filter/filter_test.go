package filter

import (
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/players-api/internal/types"
)

func ptr[T any](v T) *T { return &v }

func samplePlayers() []types.Player {
	return []types.Player{
		{ID: 1, Name: "Ragnar", Title: "Berserker", Race: types.RaceHuman, Profession: types.ProfessionWarrior, Birthday: 1_000_000_000_000, Experience: 100, Level: 1},
		{ID: 2, Name: "Legolas", Title: "Archer of Mirkwood", Race: types.RaceElf, Profession: types.ProfessionRogue, Birthday: 1_200_000_000_000, Experience: 5500, Level: 10, Banned: true},
		{ID: 3, Name: "gimli", Title: "Axe", Race: types.RaceDwarf, Profession: types.ProfessionWarrior, Birthday: 1_300_000_000_000, Experience: 9000, Level: 12},
		{ID: 4, Name: "Saruman", Title: "The White", Race: types.RaceHuman, Profession: types.ProfessionSorcerer, Birthday: 1_400_000_000_000, Experience: 20, Level: 0},
	}
}

func matchingIDs(p Predicate, players []types.Player) []int64 {
	ids := []int64{}
	for _, pl := range players {
		if p.Match(pl) {
			ids = append(ids, pl.ID)
		}
	}
	return ids
}

func TestBuild_NoCriteriaMatchesEverything(t *testing.T) {
	p := Build(Criteria{})

	assert.True(t, p.Empty())
	assert.Equal(t, "true", p.String())
	assert.Equal(t, []int64{1, 2, 3, 4}, matchingIDs(p, samplePlayers()))
}

func TestBuild_MinLevelOnly(t *testing.T) {
	p := Build(Criteria{MinLevel: ptr(10)})

	require.Len(t, p, 1)
	assert.Equal(t, Condition{Field: FieldLevel, Op: GreaterOrEqual, Values: []any{int64(10)}}, p[0])
	assert.Equal(t, []int64{2, 3}, matchingIDs(p, samplePlayers()))
}

func TestBuild_RangeShapes(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		want     Condition
		ids      []int64
	}{
		{
			name:     "max level only",
			criteria: Criteria{MaxLevel: ptr(1)},
			want:     Condition{Field: FieldLevel, Op: LessOrEqual, Values: []any{int64(1)}},
			ids:      []int64{1, 4},
		},
		{
			name:     "level between",
			criteria: Criteria{MinLevel: ptr(1), MaxLevel: ptr(10)},
			want:     Condition{Field: FieldLevel, Op: Between, Values: []any{int64(1), int64(10)}},
			ids:      []int64{1, 2},
		},
		{
			name:     "experience min only",
			criteria: Criteria{MinExperience: ptr(5500)},
			want:     Condition{Field: FieldExperience, Op: GreaterOrEqual, Values: []any{int64(5500)}},
			ids:      []int64{2, 3},
		},
		{
			name:     "experience between",
			criteria: Criteria{MinExperience: ptr(20), MaxExperience: ptr(100)},
			want:     Condition{Field: FieldExperience, Op: Between, Values: []any{int64(20), int64(100)}},
			ids:      []int64{1, 4},
		},
		{
			name:     "after only",
			criteria: Criteria{After: ptr(int64(1_300_000_000_000))},
			want:     Condition{Field: FieldBirthday, Op: GreaterOrEqual, Values: []any{int64(1_300_000_000_000)}},
			ids:      []int64{3, 4},
		},
		{
			name:     "before only",
			criteria: Criteria{Before: ptr(int64(1_200_000_000_000))},
			want:     Condition{Field: FieldBirthday, Op: LessOrEqual, Values: []any{int64(1_200_000_000_000)}},
			ids:      []int64{1, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Build(tt.criteria)
			require.Len(t, p, 1)
			assert.Equal(t, tt.want, p[0])
			assert.Equal(t, tt.ids, matchingIDs(p, samplePlayers()))
		})
	}
}

func TestBuild_BirthdayRangeAppliesOffsetToUpperBound(t *testing.T) {
	after := int64(1_000_000_000_000)
	before := int64(1_300_000_000_000)

	p := Build(Criteria{After: &after, Before: &before})

	require.Len(t, p, 1)
	assert.Equal(t, []any{after, before - 3600001}, p[0].Values)
	// Player 3 sits exactly on "before" and falls outside the shifted range.
	assert.Equal(t, []int64{1, 2}, matchingIDs(p, samplePlayers()))

	// The last millisecond still inside the range.
	edge := types.Player{Birthday: before - 3600001}
	assert.True(t, p.Match(edge))
	edge.Birthday++
	assert.False(t, p.Match(edge))
}

func TestBuild_SubstringMatchIsCaseSensitive(t *testing.T) {
	p := Build(Criteria{Name: ptr("G")})
	assert.Empty(t, matchingIDs(p, samplePlayers()))

	p = Build(Criteria{Name: ptr("g")})
	assert.Equal(t, []int64{1, 2, 3}, matchingIDs(p, samplePlayers()))

	p = Build(Criteria{Title: ptr("White")})
	assert.Equal(t, []int64{4}, matchingIDs(p, samplePlayers()))
}

func TestBuild_CombinesWithAnd(t *testing.T) {
	race := types.RaceHuman
	prof := types.ProfessionWarrior
	p := Build(Criteria{Race: &race, Profession: &prof, Banned: ptr(false)})

	assert.Len(t, p, 3)
	assert.Equal(t, []int64{1}, matchingIDs(p, samplePlayers()))

	p = Build(Criteria{Banned: ptr(true)})
	assert.Equal(t, []int64{2}, matchingIDs(p, samplePlayers()))
}

func TestFromQuery(t *testing.T) {
	q := url.Values{}
	q.Set("name", "Leg")
	q.Set("title", "")
	q.Set("race", "ELF")
	q.Set("profession", "ROGUE")
	q.Set("banned", "true")
	q.Set("minLevel", "2")
	q.Set("maxExperience", "6000")
	q.Set("after", "1000")
	q.Set("pageNumber", "4")

	c, err := FromQuery(q)
	require.NoError(t, err)

	assert.Equal(t, ptr("Leg"), c.Name)
	assert.Nil(t, c.Title)
	assert.Equal(t, ptr(types.RaceElf), c.Race)
	assert.Equal(t, ptr(types.ProfessionRogue), c.Profession)
	assert.Equal(t, ptr(true), c.Banned)
	assert.Equal(t, ptr(2), c.MinLevel)
	assert.Nil(t, c.MaxLevel)
	assert.Nil(t, c.MinExperience)
	assert.Equal(t, ptr(6000), c.MaxExperience)
	assert.Equal(t, ptr(int64(1000)), c.After)
	assert.Nil(t, c.Before)
}

func TestFromQuery_RejectsMalformedValues(t *testing.T) {
	for _, q := range []url.Values{
		{"race": {"WIZARD"}},
		{"profession": {"BARD"}},
		{"banned": {"maybe"}},
		{"minLevel": {"ten"}},
		{"maxLevel": {"NaN"}},
		{"minExperience": {"Inf"}},
		{"before": {"yesterday"}},
	} {
		_, err := FromQuery(q)
		assert.ErrorIs(t, err, ErrInvalidCriterion, "query %v", q)
	}
}

func TestFromQuery_DecimalBoundsRoundInward(t *testing.T) {
	c, err := FromQuery(url.Values{
		"minLevel":      {"1.5"},
		"maxLevel":      {"9.99"},
		"minExperience": {"-0.5"},
		"maxExperience": {"1e12"},
	})
	require.NoError(t, err)

	assert.Equal(t, ptr(2), c.MinLevel)
	assert.Equal(t, ptr(9), c.MaxLevel)
	assert.Equal(t, ptr(0), c.MinExperience)
	assert.Equal(t, ptr(math.MaxInt32), c.MaxExperience)

	// level >= 1.5 selects the same players as level >= 2.
	p := Build(Criteria{MinLevel: c.MinLevel})
	for _, pl := range samplePlayers() {
		assert.Equal(t, float64(pl.Level) >= 1.5, p.Match(pl), "player %d", pl.ID)
	}
}
