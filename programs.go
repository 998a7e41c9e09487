package qivivo

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Weekday is a lowercase english day name as used in program paths.
type Weekday string

// Program days.
const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// Weekdays lists the days of a program in order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Valid reports whether d is one of Weekdays.
func (d Weekday) Valid() bool {
	for _, w := range Weekdays {
		if d == w {
			return true
		}
	}
	return false
}

// ProgramID identifies a user program. The API sends it as a number or a string.
type ProgramID string

func (id *ProgramID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ProgramID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ProgramID(n.String())
	return nil
}

// Period is a slice of a day during which one temperature setting applies.
type Period struct {
	Start              string `json:"period_start"`
	End                string `json:"period_end"`
	TemperatureSetting string `json:"temperature_setting"`
}

// NewPeriod returns a period with the defaults of the Qivivo app: from 00:00 to
// 23:00 at the night temperature. Empty arguments keep the defaults.
func NewPeriod(start, end, setting string) Period {
	p := Period{Start: "00:00", End: "23:00", TemperatureSetting: string(SettingNightTemperature)}
	if start != "" {
		p.Start = start
	}
	if end != "" {
		p.End = end
	}
	if setting != "" {
		p.TemperatureSetting = setting
	}
	return p
}

// Program is a weekly heating schedule.
type Program struct {
	ID      ProgramID            `json:"id,omitempty"`
	Name    string               `json:"name"`
	Program map[Weekday][]Period `json:"program"`
}

// NewProgram returns a named program with an empty schedule for every day.
func NewProgram(name string) Program {
	days := make(map[Weekday][]Period, len(Weekdays))
	for _, d := range Weekdays {
		days[d] = []Period{}
	}
	return Program{Name: name, Program: days}
}

// ThermostatPrograms is the programs resource of a thermostat.
type ThermostatPrograms struct {
	UserActiveProgramID ProgramID `json:"user_active_program_id"`
	UserPrograms        []Program `json:"user_programs"`
}

// Active returns the active program, or nil if it is not in the list.
func (p *ThermostatPrograms) Active() *Program {
	return findProgram(p.UserPrograms, p.UserActiveProgramID)
}

// MultizonePrograms is the programs resource of a wireless module.
type MultizonePrograms struct {
	UserActiveProgramID   ProgramID `json:"user_active_program_id"`
	UserMultizonePrograms []Program `json:"user_multizone_programs"`
}

// Active returns the active program, or nil if it is not in the list.
func (p *MultizonePrograms) Active() *Program {
	return findProgram(p.UserMultizonePrograms, p.UserActiveProgramID)
}

func findProgram(programs []Program, id ProgramID) *Program {
	if id == "" {
		return nil
	}
	for i := range programs {
		if programs[i].ID == id {
			return &programs[i]
		}
	}
	return nil
}

// programPath joins path segments below the programs field.
func programPath(parts ...string) string {
	return strings.Join(append([]string{"programs"}, parts...), "/")
}

type renameProgramRequest struct {
	NewName string `json:"new_name"`
}

type programDayUpdateRequest struct {
	ProgramDayUpdate []Period `json:"program_day_update"`
}
