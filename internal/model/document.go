package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// CurrentSchemaVersion is written into every structure config and timetable document.
// Version 0 (no field) is the legacy untyped form.
const CurrentSchemaVersion = 1

var ErrUnsupportedSchema = errors.New("unsupported document schema version")

// StructureConfig is the persisted form of a structure's periods and working days.
type StructureConfig struct {
	SchemaVersion int       `json:"schemaVersion"`
	Periods       []Period  `json:"periods"`
	WorkingDays   []DayName `json:"workingDays"`
}

// TimetableDocument is the persisted form of a classroom grid.
type TimetableDocument struct {
	SchemaVersion int  `json:"schemaVersion"`
	Grid          Grid `json:"grid"`
}

// EncodeStructureConfig serializes periods and working days preserving their order.
func EncodeStructureConfig(s *Structure) ([]byte, error) {
	cfg := s.Config()
	if cfg.Periods == nil {
		cfg.Periods = []Period{}
	}
	if cfg.WorkingDays == nil {
		cfg.WorkingDays = []DayName{}
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode structure config: %w", err)
	}
	return data, nil
}

// DecodeStructureConfig parses a config document, migrating legacy ones:
// periods without a kind become CLASS.
func DecodeStructureConfig(data []byte) (StructureConfig, error) {
	var cfg StructureConfig
	if len(data) == 0 || string(data) == "null" {
		return StructureConfig{SchemaVersion: CurrentSchemaVersion, Periods: []Period{}, WorkingDays: []DayName{}}, nil
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return StructureConfig{}, fmt.Errorf("decode structure config: %w", err)
	}
	if cfg.SchemaVersion > CurrentSchemaVersion {
		return StructureConfig{}, fmt.Errorf("structure config v%d: %w", cfg.SchemaVersion, ErrUnsupportedSchema)
	}
	for i := range cfg.Periods {
		if cfg.Periods[i].Kind == "" {
			cfg.Periods[i].Kind = PeriodKindClass
		}
	}
	if cfg.Periods == nil {
		cfg.Periods = []Period{}
	}
	if cfg.WorkingDays == nil {
		cfg.WorkingDays = []DayName{}
	}
	cfg.SchemaVersion = CurrentSchemaVersion
	return cfg, nil
}

// EncodeTimetable serializes a grid into a versioned document. Empty cells are dropped.
func EncodeTimetable(g Grid) ([]byte, error) {
	doc := TimetableDocument{SchemaVersion: CurrentSchemaVersion, Grid: make(Grid, len(g))}
	for day, row := range g {
		r := make(map[string]SlotAssignment, len(row))
		for id, a := range row {
			if !a.IsEmpty() {
				r[id] = a
			}
		}
		doc.Grid[day] = r
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode timetable: %w", err)
	}
	return data, nil
}

// DecodeTimetable parses a timetable document. Legacy documents are a bare
// day -> period -> assignment map without the schemaVersion envelope.
func DecodeTimetable(data []byte) (Grid, error) {
	if len(data) == 0 || string(data) == "null" {
		return Grid{}, nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode timetable: %w", err)
	}

	if _, versioned := probe["schemaVersion"]; !versioned {
		var legacy Grid
		if err := json.Unmarshal(data, &legacy); err != nil {
			return nil, fmt.Errorf("decode legacy timetable: %w", err)
		}
		return legacy, nil
	}

	var doc TimetableDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode timetable: %w", err)
	}
	if doc.SchemaVersion > CurrentSchemaVersion {
		return nil, fmt.Errorf("timetable v%d: %w", doc.SchemaVersion, ErrUnsupportedSchema)
	}
	if doc.Grid == nil {
		doc.Grid = Grid{}
	}
	return doc.Grid, nil
}
