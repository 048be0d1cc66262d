// Package filter turns the optional player search criteria into a single
// explicit predicate.
//
// A Predicate is a flat list of Conditions combined with logical AND.
// Every store consumes the same structure: the in-memory store evaluates
// it with Match, the SQL store translates it into a WHERE clause. An
// unset criterion contributes no Condition, so a Predicate built from an
// empty Criteria is empty and matches every player.
package filter

import (
	"fmt"
	"strings"

	"github.com/aanand-mishra/players-api/internal/types"
)

// Field names a filterable player attribute. The values double as the
// column names of the players table.
type Field string

const (
	FieldName       Field = "name"
	FieldTitle      Field = "title"
	FieldRace       Field = "race"
	FieldProfession Field = "profession"
	FieldBanned     Field = "banned"
	FieldLevel      Field = "level"
	FieldExperience Field = "experience"
	FieldBirthday   Field = "birthday"
)

// Op is the comparison a Condition applies to its Field.
type Op int

const (
	// Contains is a case-sensitive substring match on a string field.
	Contains Op = iota
	Equal
	GreaterOrEqual
	LessOrEqual
	// Between is inclusive on both ends and takes two values.
	Between
)

func (o Op) String() string {
	switch o {
	case Contains:
		return "contains"
	case Equal:
		return "eq"
	case GreaterOrEqual:
		return "gte"
	case LessOrEqual:
		return "lte"
	case Between:
		return "between"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// BirthdayRangeOffset is subtracted from the upper birthday bound when
// both bounds are given. The one-hour-minus-one-millisecond shift is
// part of the public filter contract and must not be "fixed".
const BirthdayRangeOffset int64 = 3600001

// Criteria holds the optional search dimensions. A nil field means the
// caller did not ask to filter on it.
type Criteria struct {
	Name          *string
	Title         *string
	Race          *types.Race
	Profession    *types.Profession
	Banned        *bool
	MinLevel      *int
	MaxLevel      *int
	MinExperience *int
	MaxExperience *int
	// After and Before are epoch-millisecond birthday bounds.
	After  *int64
	Before *int64
}

// Condition is one independent constraint on a player.
//
// Values holds one operand, or two for Between. Operand types follow the
// field: string for name/title/race/profession, bool for banned, int64
// for level/experience/birthday.
type Condition struct {
	Field  Field
	Op     Op
	Values []any
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %v", c.Field, c.Op, c.Values)
}

// Predicate is the AND of its Conditions. The zero value matches
// everything.
type Predicate []Condition

// Empty reports whether the predicate places no constraint at all.
func (p Predicate) Empty() bool {
	return len(p) == 0
}

func (p Predicate) String() string {
	if p.Empty() {
		return "true"
	}
	parts := make([]string, 0, len(p))
	for _, c := range p {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, " AND ")
}

// Build composes the predicate for the given criteria.
func Build(c Criteria) Predicate {
	var p Predicate

	if c.Name != nil {
		p = append(p, Condition{Field: FieldName, Op: Contains, Values: []any{*c.Name}})
	}
	if c.Title != nil {
		p = append(p, Condition{Field: FieldTitle, Op: Contains, Values: []any{*c.Title}})
	}
	if c.Profession != nil {
		p = append(p, Condition{Field: FieldProfession, Op: Equal, Values: []any{string(*c.Profession)}})
	}
	if c.Race != nil {
		p = append(p, Condition{Field: FieldRace, Op: Equal, Values: []any{string(*c.Race)}})
	}
	if c.Banned != nil {
		p = append(p, Condition{Field: FieldBanned, Op: Equal, Values: []any{*c.Banned}})
	}
	if cond, ok := intRange(FieldLevel, c.MinLevel, c.MaxLevel); ok {
		p = append(p, cond)
	}
	if cond, ok := intRange(FieldExperience, c.MinExperience, c.MaxExperience); ok {
		p = append(p, cond)
	}
	if cond, ok := birthdayRange(c.After, c.Before); ok {
		p = append(p, cond)
	}

	return p
}

func intRange(field Field, min, max *int) (Condition, bool) {
	switch {
	case min == nil && max == nil:
		return Condition{}, false
	case min == nil:
		return Condition{Field: field, Op: LessOrEqual, Values: []any{int64(*max)}}, true
	case max == nil:
		return Condition{Field: field, Op: GreaterOrEqual, Values: []any{int64(*min)}}, true
	default:
		return Condition{Field: field, Op: Between, Values: []any{int64(*min), int64(*max)}}, true
	}
}

func birthdayRange(after, before *int64) (Condition, bool) {
	switch {
	case after == nil && before == nil:
		return Condition{}, false
	case after == nil:
		return Condition{Field: FieldBirthday, Op: LessOrEqual, Values: []any{*before}}, true
	case before == nil:
		return Condition{Field: FieldBirthday, Op: GreaterOrEqual, Values: []any{*after}}, true
	default:
		return Condition{Field: FieldBirthday, Op: Between, Values: []any{*after, *before - BirthdayRangeOffset}}, true
	}
}

// Match evaluates the predicate against a single player.
func (p Predicate) Match(pl types.Player) bool {
	for _, c := range p {
		if !c.Match(pl) {
			return false
		}
	}
	return true
}

// Match evaluates one condition against a single player.
func (c Condition) Match(pl types.Player) bool {
	switch c.Field {
	case FieldName:
		return matchString(c, pl.Name)
	case FieldTitle:
		return matchString(c, pl.Title)
	case FieldRace:
		return matchString(c, string(pl.Race))
	case FieldProfession:
		return matchString(c, string(pl.Profession))
	case FieldBanned:
		want, ok := c.operand(0).(bool)
		return ok && c.Op == Equal && pl.Banned == want
	case FieldLevel:
		return matchInt(c, int64(pl.Level))
	case FieldExperience:
		return matchInt(c, int64(pl.Experience))
	case FieldBirthday:
		return matchInt(c, pl.Birthday)
	default:
		return false
	}
}

func (c Condition) operand(i int) any {
	if i >= len(c.Values) {
		return nil
	}
	return c.Values[i]
}

func matchString(c Condition, v string) bool {
	want, ok := c.operand(0).(string)
	if !ok {
		return false
	}
	switch c.Op {
	case Contains:
		return strings.Contains(v, want)
	case Equal:
		return v == want
	default:
		return false
	}
}

func matchInt(c Condition, v int64) bool {
	lo, ok := c.operand(0).(int64)
	if !ok {
		return false
	}
	switch c.Op {
	case Equal:
		return v == lo
	case GreaterOrEqual:
		return v >= lo
	case LessOrEqual:
		return v <= lo
	case Between:
		hi, ok := c.operand(1).(int64)
		return ok && lo <= v && v <= hi
	default:
		return false
	}
}
