package layout

import (
	"math"
	"sort"
)

// Migrate converts any previously stored shape into a valid current Data.
// It never fails: unrecognised input yields Default.
//
// Recognised shapes, checked in order:
//
//	v1: {"rows": n, "cols": m, "cells": [...]} without "layouts"
//	v2: {"layouts": {name: layout}, "currentLayout": name}
//	v3: {"version": 3, "layout": {...}}
//
// Cells are revalidated on every path; invalid or duplicate ones are dropped.
func Migrate(raw any) Data {
	switch v := raw.(type) {
	case Data:
		return sanitize(v)
	case *Data:
		if v == nil {
			return Default()
		}
		return sanitize(*v)
	case map[string]any:
		return migrateObject(v)
	default:
		return Default()
	}
}

func migrateObject(obj map[string]any) Data {
	_, rowsOK := number(obj["rows"])
	_, colsOK := number(obj["cols"])
	if rowsOK && colsOK && !truthy(obj["layouts"]) {
		return fromLayoutObject(obj)
	}

	if truthy(obj["layouts"]) && truthy(obj["currentLayout"]) {
		layouts, ok := obj["layouts"].(map[string]any)
		if !ok {
			return Default()
		}
		if name, ok := obj["currentLayout"].(string); ok {
			if l, ok := layouts[name].(map[string]any); ok {
				return fromLayoutObject(l)
			}
		}
		names := make([]string, 0, len(layouts))
		for name := range layouts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if l, ok := layouts[name].(map[string]any); ok {
				return fromLayoutObject(l)
			}
		}
		return Default()
	}

	if l, ok := obj["layout"].(map[string]any); ok {
		return fromLayoutObject(l)
	}

	return Default()
}

func fromLayoutObject(obj map[string]any) Data {
	rows, ok := number(obj["rows"])
	if !ok {
		return Default()
	}
	cols, ok := number(obj["cols"])
	if !ok {
		return Default()
	}
	l := Layout{
		Rows:  sizeOf(rows),
		Cols:  sizeOf(cols),
		Cells: []Cell{},
	}

	list, _ := obj["cells"].([]any)
	for _, item := range list {
		c, ok := parseCell(item)
		if !ok || !l.Contains(c.Row, c.Col) || l.Index(c.Row, c.Col) >= 0 {
			continue
		}
		l.Cells = append(l.Cells, c)
	}

	return Data{Version: CurrentVersion, Layout: l}
}

func parseCell(item any) (Cell, bool) {
	obj, ok := item.(map[string]any)
	if !ok {
		return Cell{}, false
	}
	row, ok := index(obj["row"])
	if !ok {
		return Cell{}, false
	}
	col, ok := index(obj["col"])
	if !ok {
		return Cell{}, false
	}
	path, present := obj["notePath"]
	if !present {
		return Cell{}, false
	}
	var notePath string
	switch p := path.(type) {
	case nil:
	case string:
		notePath = p
	default:
		return Cell{}, false
	}
	m, _ := obj["mode"].(string)
	mode := Mode(m)
	if !mode.Valid() {
		return Cell{}, false
	}
	return Cell{Row: row, Col: col, NotePath: notePath, Mode: mode}, true
}

// sanitize applies the same rules as the JSON path to an already typed value.
func sanitize(d Data) Data {
	l := Layout{
		Rows:  clampSize(d.Layout.Rows),
		Cols:  clampSize(d.Layout.Cols),
		Cells: []Cell{},
	}
	for _, c := range d.Layout.Cells {
		if !c.Mode.Valid() || !l.Contains(c.Row, c.Col) || l.Index(c.Row, c.Col) >= 0 {
			continue
		}
		l.Cells = append(l.Cells, c)
	}
	return Data{Version: CurrentVersion, Layout: l}
}

func clampSize(n int) int {
	switch {
	case n < MinSize:
		return MinSize
	case n > MaxSize:
		return MaxSize
	default:
		return n
	}
}

// sizeOf clamps before converting; out-of-range float to int conversions
// are implementation-defined.
func sizeOf(f float64) int {
	return int(math.Floor(math.Min(math.Max(f, MinSize), MaxSize)))
}

func number(v any) (float64, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// index accepts whole numbers that can address a cell.
func index(v any) (int, bool) {
	f, ok := number(v)
	if !ok || f < 0 || f >= MaxSize || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// truthy follows JSON-value truthiness: null, false, 0 and "" are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case string:
		return t != ""
	default:
		return true
	}
}
