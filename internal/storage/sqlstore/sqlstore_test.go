package sqlstore

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/players-api/internal/filter"
	"github.com/aanand-mishra/players-api/internal/types"
)

var numbered = Dialect{
	Name:        "numbered",
	Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	Contains:    func(column, ph string) string { return "strpos(" + column + ", " + ph + ") > 0" },
}

func ptr[T any](v T) *T { return &v }

func TestWhere_Empty(t *testing.T) {
	s := &Store{dialect: numbered}
	a := &args{dialect: numbered}

	where, err := s.where(nil, a)
	require.NoError(t, err)
	assert.Empty(t, where)
	assert.Empty(t, a.values)
}

func TestWhere_NumbersPlaceholdersInOrder(t *testing.T) {
	s := &Store{dialect: numbered}
	a := &args{dialect: numbered}

	pred := filter.Build(filter.Criteria{
		Name:     ptr("Leg"),
		Race:     ptr(types.RaceElf),
		Banned:   ptr(true),
		MinLevel: ptr(1),
		MaxLevel: ptr(10),
	})

	where, err := s.where(pred, a)
	require.NoError(t, err)
	assert.Equal(t,
		" WHERE strpos(name, $1) > 0 AND race = $2 AND banned = $3 AND level BETWEEN $4 AND $5",
		where)
	assert.Equal(t, []any{"Leg", "ELF", true, int64(1), int64(10)}, a.values)

	// LIMIT/OFFSET continue the numbering.
	assert.Equal(t, "$6", a.add(3))
}

func TestWhere_RejectsUnknownField(t *testing.T) {
	s := &Store{dialect: numbered}

	_, err := s.where(filter.Predicate{{Field: "mana", Op: filter.Equal, Values: []any{1}}}, &args{dialect: numbered})
	assert.Error(t, err)
}

func TestWhere_RejectsMalformedCondition(t *testing.T) {
	s := &Store{dialect: numbered}

	_, err := s.where(filter.Predicate{{Field: filter.FieldLevel, Op: filter.Between, Values: []any{int64(1)}}}, &args{dialect: numbered})
	assert.Error(t, err)
}
