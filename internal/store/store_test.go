package store

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/gabrielfornes/teagrid/internal/layout"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s
}

func TestLoadMissingReturnsDefault(t *testing.T) {
	s := openStore(t)
	d, found, err := s.Load("nothing")
	if err != nil || found {
		t.Fatalf("load = found %v err %v", found, err)
	}
	if !reflect.DeepEqual(d, layout.Default()) {
		t.Fatalf("data = %+v", d)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openStore(t)
	d := layout.Default()
	d.Layout.Cells[2].NotePath = "x.md"
	if err := s.Save("work", d); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, found, err := s.Load("work")
	if err != nil || !found {
		t.Fatalf("load = found %v err %v", found, err)
	}
	if !reflect.DeepEqual(got, d) {
		t.Fatalf("got %+v, want %+v", got, d)
	}
}

func TestLoadMalformedMigrates(t *testing.T) {
	s := openStore(t)
	if err := s.d.Write(gridPrefix+"old", []byte(`{"rows": 1, "cols": 3, "cells": []}`)); err != nil {
		t.Fatal(err)
	}
	if err := s.d.Write(gridPrefix+"junk", []byte(`not json`)); err != nil {
		t.Fatal(err)
	}
	old, _, err := s.Load("old")
	if err != nil || old.Layout.Cols != 3 || old.Version != layout.CurrentVersion {
		t.Fatalf("old = %+v, %v", old, err)
	}
	junk, found, err := s.Load("junk")
	if err != nil || !found || !reflect.DeepEqual(junk, layout.Default()) {
		t.Fatalf("junk = %+v found %v err %v", junk, found, err)
	}
}

func TestInvalidNames(t *testing.T) {
	s := openStore(t)
	for _, name := range []string{"", " ", "a/b", ".hidden"} {
		if err := s.Save(name, layout.Default()); !errors.Is(err, ErrInvalidName) {
			t.Fatalf("save %q: err = %v", name, err)
		}
	}
}

func TestNamesAndCreateUnique(t *testing.T) {
	s := openStore(t)
	var got []string
	for i := 0; i < 3; i++ {
		name, err := s.CreateUnique("")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		got = append(got, name)
	}
	want := []string{"grid-layout", "grid-layout-1", "grid-layout-2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("created %v, want %v", got, want)
	}
	if names := s.Names(context.Background()); !reflect.DeepEqual(names, want) {
		t.Fatalf("names = %v", names)
	}
	if err := s.Delete("grid-layout-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.Exists("grid-layout-1") {
		t.Fatal("deleted grid still exists")
	}
	if _, err := os.Stat(filepath.Join(s.BasePath(), "grids", "grid-layout.json")); err != nil {
		t.Fatalf("expected blob on disk: %v", err)
	}
}

func TestPersisterDebounces(t *testing.T) {
	s := openStore(t)
	p := NewPersister(s, "g", 30*time.Millisecond)
	for i := 1; i <= 3; i++ {
		d := layout.Default()
		d.Layout.Rows = i
		p.Save(d)
	}
	if s.Exists("g") {
		t.Fatal("write should wait for the quiet period")
	}
	deadline := time.Now().Add(2 * time.Second)
	for !s.Exists("g") {
		if time.Now().After(deadline) {
			t.Fatal("debounced write never happened")
		}
		time.Sleep(10 * time.Millisecond)
	}
	d, _, err := s.Load("g")
	if err != nil || d.Layout.Rows != 3 {
		t.Fatalf("saved rows = %d err %v, want the latest state", d.Layout.Rows, err)
	}
}

func TestPersisterCloseFlushes(t *testing.T) {
	s := openStore(t)
	p := NewPersister(s, "g", time.Hour)
	d := layout.Default()
	d.Layout.Cols = 4
	p.Save(d)
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	got, found, _ := s.Load("g")
	if !found || got.Layout.Cols != 4 {
		t.Fatalf("close did not flush: %+v", got)
	}
	d.Layout.Cols = 1
	p.Save(d)
	if err := p.Flush(); err != nil {
		t.Fatal(err)
	}
	got, _, _ = s.Load("g")
	if got.Layout.Cols != 4 {
		t.Fatal("saves after close must be ignored")
	}
}

func TestPersisterSavesCopy(t *testing.T) {
	s := openStore(t)
	p := NewPersister(s, "g", time.Hour)
	d := layout.Default()
	p.Save(d)
	d.Layout.Cells[0].NotePath = "mutated.md"
	if err := p.Flush(); err != nil {
		t.Fatal(err)
	}
	got, _, _ := s.Load("g")
	if got.Layout.Cells[0].NotePath != "" {
		t.Fatal("persister must snapshot the data it was given")
	}
}

func newRegistry(t *testing.T, alive map[int]bool) *Registry {
	t.Helper()
	r := NewRegistry(openStore(t))
	r.alive = func(pid int) bool { return alive[pid] }
	return r
}

func TestClaimFresh(t *testing.T) {
	r := newRegistry(t, nil)
	c, err := r.Claim("grid-panes-view", Owner{ID: "teagrid", PID: 10})
	if err != nil || c.TookOver {
		t.Fatalf("claim = %+v, %v", c, err)
	}
	if h, ok := r.Holder("grid-panes-view"); !ok || h.PID != 10 {
		t.Fatalf("holder = %+v %v", h, ok)
	}
	if err := c.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, ok := r.Holder("grid-panes-view"); ok {
		t.Fatal("released view should have no holder")
	}
}

func TestClaimForeignOwnerConflicts(t *testing.T) {
	r := newRegistry(t, nil)
	if _, err := r.Claim("v", Owner{ID: "other-plugin", PID: 1}); err != nil {
		t.Fatal(err)
	}
	_, err := r.Claim("v", Owner{ID: "teagrid", PID: 2})
	if !errors.Is(err, ErrViewConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	var ce *ConflictError
	if !errors.As(err, &ce) || ce.Owner != "other-plugin" || ce.ViewType != "v" {
		t.Fatalf("conflict = %+v", ce)
	}
}

func TestClaimLiveInstanceConflicts(t *testing.T) {
	r := newRegistry(t, map[int]bool{1: true})
	if _, err := r.Claim("v", Owner{ID: "teagrid", PID: 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Claim("v", Owner{ID: "teagrid", PID: 2}); !errors.Is(err, ErrViewConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestClaimStaleTakesOver(t *testing.T) {
	r := newRegistry(t, map[int]bool{})
	if _, err := r.Claim("v", Owner{ID: "teagrid", PID: 1}); err != nil {
		t.Fatal(err)
	}
	c, err := r.Claim("v", Owner{ID: "teagrid", PID: 2})
	if err != nil || !c.TookOver {
		t.Fatalf("claim = %+v, %v", c, err)
	}
	if h, _ := r.Holder("v"); h.PID != 2 {
		t.Fatalf("holder pid = %d", h.PID)
	}
}

func TestClaimSameProcessIsIdempotent(t *testing.T) {
	r := newRegistry(t, nil)
	owner := Owner{ID: "teagrid", PID: 7}
	if _, err := r.Claim("v", owner); err != nil {
		t.Fatal(err)
	}
	c, err := r.Claim("v", owner)
	if err != nil || c.TookOver {
		t.Fatalf("reclaim = %+v, %v", c, err)
	}
}

func TestReleaseKeepsOthersRegistration(t *testing.T) {
	r := newRegistry(t, map[int]bool{})
	old, err := r.Claim("v", Owner{ID: "teagrid", PID: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Claim("v", Owner{ID: "teagrid", PID: 2}); err != nil {
		t.Fatal(err)
	}
	if err := old.Release(); err != nil {
		t.Fatal(err)
	}
	if h, ok := r.Holder("v"); !ok || h.PID != 2 {
		t.Fatal("releasing a superseded claim must not remove the new one")
	}
}

func TestLiveHolderIgnoresDeadProcess(t *testing.T) {
	alive := map[int]bool{3: true}
	r := newRegistry(t, alive)
	if _, err := r.Claim("v", Owner{ID: "teagrid", PID: 3}); err != nil {
		t.Fatal(err)
	}
	if h, ok := r.LiveHolder("v"); !ok || h.PID != 3 {
		t.Fatalf("live holder = %+v %v", h, ok)
	}
	alive[3] = false
	if _, ok := r.LiveHolder("v"); ok {
		t.Fatal("a dead holder is not live")
	}
}

func TestProcessAliveSelf(t *testing.T) {
	if !processAlive(os.Getpid()) {
		t.Fatal("own process should be alive")
	}
	if processAlive(0) {
		t.Fatal("pid 0 is never a live holder")
	}
}

func TestProcessAliveExited(t *testing.T) {
	cmd := exec.Command(os.Args[0], "-test.run=^$")
	if err := cmd.Run(); err != nil {
		t.Fatal(err)
	}
	if processAlive(cmd.Process.Pid) {
		t.Fatalf("pid %d has exited", cmd.Process.Pid)
	}
}
