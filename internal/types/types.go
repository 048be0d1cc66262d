// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles —
// handlers, the service layer, filters and storage can all import types
// without depending on each other.
package types

import "fmt"

// Race is the enumerated race of a player. It travels over the wire and
// into the database as its upper-case name, e.g. "ELF".
type Race string

const (
	RaceHuman  Race = "HUMAN"
	RaceDwarf  Race = "DWARF"
	RaceElf    Race = "ELF"
	RaceGiant  Race = "GIANT"
	RaceOrc    Race = "ORC"
	RaceTroll  Race = "TROLL"
	RaceHobbit Race = "HOBBIT"
)

// Races lists every valid Race in declaration order.
var Races = []Race{RaceHuman, RaceDwarf, RaceElf, RaceGiant, RaceOrc, RaceTroll, RaceHobbit}

// Valid reports whether r is one of the declared races.
func (r Race) Valid() bool {
	for _, known := range Races {
		if r == known {
			return true
		}
	}
	return false
}

// ParseRace converts a query-string value into a Race.
func ParseRace(s string) (Race, error) {
	r := Race(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown race %q", s)
	}
	return r, nil
}

// Profession is the enumerated profession of a player.
type Profession string

const (
	ProfessionWarrior  Profession = "WARRIOR"
	ProfessionRogue    Profession = "ROGUE"
	ProfessionSorcerer Profession = "SORCERER"
	ProfessionCleric   Profession = "CLERIC"
	ProfessionPaladin  Profession = "PALADIN"
	ProfessionNazgul   Profession = "NAZGUL"
	ProfessionWarlock  Profession = "WARLOCK"
	ProfessionDruid    Profession = "DRUID"
)

// Professions lists every valid Profession in declaration order.
var Professions = []Profession{
	ProfessionWarrior, ProfessionRogue, ProfessionSorcerer, ProfessionCleric,
	ProfessionPaladin, ProfessionNazgul, ProfessionWarlock, ProfessionDruid,
}

// Valid reports whether p is one of the declared professions.
func (p Profession) Valid() bool {
	for _, known := range Professions {
		if p == known {
			return true
		}
	}
	return false
}

// ParseProfession converts a query-string value into a Profession.
func ParseProfession(s string) (Profession, error) {
	p := Profession(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown profession %q", s)
	}
	return p, nil
}

// Player represents a stored player record.
//
// Birthday is kept as epoch milliseconds, which is both how clients send
// it and how the date-range filters express their bounds.
//
// Level and UntilNextLevel are derived from Experience by the service
// layer and are never trusted from client input.
type Player struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Title          string     `json:"title"`
	Race           Race       `json:"race"`
	Profession     Profession `json:"profession"`
	Birthday       int64      `json:"birthday"`
	Banned         bool       `json:"banned"`
	Experience     int        `json:"experience"`
	Level          int        `json:"level"`
	UntilNextLevel int        `json:"untilNextLevel"`
}

// PlayerData is the request payload for both create and update.
//
// Every field is a pointer so that "not sent" (nil) can be told apart
// from a zero value such as banned=false or experience=0.
//
// Struct tags:
//
//  1. json:"..."     — the wire names, matching Player.
//  2. validate:"..." — rules checked by go-playground/validator.
//     "omitnil" skips the remaining rules when the field was not sent,
//     which is what makes partial updates possible. "birthyear" is a
//     custom rule registered by the service package.
type PlayerData struct {
	Name           *string     `json:"name"           validate:"omitnil,min=1,max=12"`
	Title          *string     `json:"title"          validate:"omitnil,max=30"`
	Race           *Race       `json:"race"           validate:"omitnil,oneof=HUMAN DWARF ELF GIANT ORC TROLL HOBBIT"`
	Profession     *Profession `json:"profession"     validate:"omitnil,oneof=WARRIOR ROGUE SORCERER CLERIC PALADIN NAZGUL WARLOCK DRUID"`
	Birthday       *int64      `json:"birthday"       validate:"omitnil,birthyear"`
	Banned         *bool       `json:"banned"`
	Experience     *int        `json:"experience"     validate:"omitnil,min=0,max=10000000"`
	Level          *int        `json:"level"`
	UntilNextLevel *int        `json:"untilNextLevel"`
}
