package filter

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"

	"github.com/aanand-mishra/players-api/internal/types"
)

// ErrInvalidCriterion is returned when a query parameter cannot be
// converted to its criterion type.
var ErrInvalidCriterion = errors.New("invalid filter parameter")

// FromQuery reads the filter parameters of GET /players and
// GET /players/count. Absent or empty parameters stay unset.
func FromQuery(q url.Values) (Criteria, error) {
	var c Criteria
	var err error

	c.Name = optString(q, "name")
	c.Title = optString(q, "title")

	if v := q.Get("race"); v != "" {
		r, perr := types.ParseRace(v)
		if perr != nil {
			return Criteria{}, fmt.Errorf("%w: race: %s", ErrInvalidCriterion, perr.Error())
		}
		c.Race = &r
	}
	if v := q.Get("profession"); v != "" {
		p, perr := types.ParseProfession(v)
		if perr != nil {
			return Criteria{}, fmt.Errorf("%w: profession: %s", ErrInvalidCriterion, perr.Error())
		}
		c.Profession = &p
	}
	if v := q.Get("banned"); v != "" {
		b, perr := strconv.ParseBool(v)
		if perr != nil {
			return Criteria{}, fmt.Errorf("%w: banned: %q is not a boolean", ErrInvalidCriterion, v)
		}
		c.Banned = &b
	}

	if c.MinLevel, err = optBound(q, "minLevel", math.Ceil); err != nil {
		return Criteria{}, err
	}
	if c.MaxLevel, err = optBound(q, "maxLevel", math.Floor); err != nil {
		return Criteria{}, err
	}
	if c.MinExperience, err = optBound(q, "minExperience", math.Ceil); err != nil {
		return Criteria{}, err
	}
	if c.MaxExperience, err = optBound(q, "maxExperience", math.Floor); err != nil {
		return Criteria{}, err
	}
	if c.After, err = optInt64(q, "after"); err != nil {
		return Criteria{}, err
	}
	if c.Before, err = optInt64(q, "before"); err != nil {
		return Criteria{}, err
	}

	return c, nil
}

func optString(q url.Values, key string) *string {
	v := q.Get(key)
	if v == "" {
		return nil
	}
	return &v
}

// optBound parses a level or experience bound. Decimals are accepted
// and rounded toward the inside of the range (ceil for a minimum, floor
// for a maximum), which keeps the comparison equivalent for the integer
// values being filtered. Results are clamped to the int32 range.
func optBound(q url.Values, key string, round func(float64) float64) (*int, error) {
	v := q.Get(key)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %s: %q is not a number", ErrInvalidCriterion, key, v)
	}
	n := int(max(math.MinInt32, min(math.MaxInt32, round(f))))
	return &n, nil
}

func optInt64(q url.Values, key string) (*int64, error) {
	v := q.Get(key)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %q is not an integer", ErrInvalidCriterion, key, v)
	}
	return &n, nil
}
