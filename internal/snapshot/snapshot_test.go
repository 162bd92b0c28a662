package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/efebarandurmaz/coupler/internal/depgraph"
	"github.com/efebarandurmaz/coupler/internal/report"
)

func makeReport(t *testing.T, variant, dot string, simplified bool) *report.Report {
	t.Helper()
	g, err := depgraph.ParseDOT(dot)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var view *depgraph.SimplifiedView
	if simplified {
		view = depgraph.Simplify(g, depgraph.DefaultOptions())
	}
	return report.Assemble(variant, time.Unix(1700000000, 0), depgraph.Analyze(g), view)
}

const (
	tightDOT = `"a" -> "var.x"
"b" -> "var.x"
"c" -> "var.x"
"a" -> "b"
"b" -> "a"`
	looseDOT = `"a" -> "var.x"
"b" -> "var.y"
"c" -> "var.z"`
)

func TestContentHash(t *testing.T) {
	h1 := ContentHash([]byte("hello world"))
	h2 := ContentHash([]byte("hello world"))
	if h1 != h2 {
		t.Fatalf("ContentHash not deterministic: %s != %s", h1, h2)
	}
	if len(h1) != 64 {
		t.Fatalf("unexpected hash length: %d", len(h1))
	}
	if h1 == ContentHash([]byte("different")) {
		t.Fatal("different content produced same hash")
	}
}

func TestNewStore(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewStore(filepath.Join(dir, "store")); err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	for _, sub := range []string{"snapshots", "objects"} {
		if _, err := os.Stat(filepath.Join(dir, "store", sub)); err != nil {
			t.Fatalf("%s dir missing: %v", sub, err)
		}
	}
}

func TestStoreSaveAndLoad(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	input := []byte(tightDOT)
	snap := NewSnapshot(makeReport(t, "tight", tightDOT, true), input, "graphs/tight.dot")
	if err := store.Save(snap, input); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(snap.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Variant != "tight" {
		t.Errorf("variant = %q", loaded.Variant)
	}
	if loaded.Report.GraphMetrics.EdgeCount != 5 {
		t.Errorf("edge count = %d, want 5", loaded.Report.GraphMetrics.EdgeCount)
	}
	if loaded.Report.SimplifiedGraph == nil {
		t.Error("simplified view lost on round trip")
	}

	got, err := store.LoadInput(loaded)
	if err != nil {
		t.Fatalf("LoadInput failed: %v", err)
	}
	if string(got) != tightDOT {
		t.Errorf("input mismatch: %q", got)
	}
}

func TestStoreLoadMissing(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	_, err := store.Load("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreListNewestFirst(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	older := NewSnapshot(makeReport(t, "v1", looseDOT, false), []byte(looseDOT), "")
	older.CreatedAt = time.Now().Add(-time.Hour)
	older.ID = "older"
	newer := NewSnapshot(makeReport(t, "v2", tightDOT, false), []byte(tightDOT), "")
	newer.ID = "newer"

	if err := store.Save(older, []byte(looseDOT)); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(newer, []byte(tightDOT)); err != nil {
		t.Fatal(err)
	}

	list := store.List()
	if len(list) != 2 {
		t.Fatalf("got %d summaries, want 2", len(list))
	}
	if list[0].ID != "newer" || list[1].ID != "older" {
		t.Errorf("unexpected order: %s, %s", list[0].ID, list[1].ID)
	}
	if list[0].CouplingScore != 1.25 {
		t.Errorf("coupling = %v, want 1.25", list[0].CouplingScore)
	}
}

func TestStoreIndexPersists(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewStore(dir)
	snap := NewSnapshot(makeReport(t, "v1", looseDOT, false), []byte(looseDOT), "")
	if err := store.Save(snap, []byte(looseDOT)); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(reopened.List()) != 1 {
		t.Fatalf("index not persisted")
	}
}

func TestStoreFindAndResolve(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	snap := NewSnapshot(makeReport(t, "blue", looseDOT, false), []byte(looseDOT), "")
	if err := store.Save(snap, []byte(looseDOT)); err != nil {
		t.Fatal(err)
	}
	if err := store.Tag(snap.ID, "release-1"); err != nil {
		t.Fatalf("Tag failed: %v", err)
	}

	byVariant, err := store.FindByVariant("blue")
	if err != nil || byVariant.ID != snap.ID {
		t.Errorf("FindByVariant: %v, %v", byVariant, err)
	}
	byTag, err := store.FindByTag("release-1")
	if err != nil || byTag.Tag != "release-1" {
		t.Errorf("FindByTag: %v, %v", byTag, err)
	}
	for _, ref := range []string{snap.ID, "release-1", "blue"} {
		if got, err := store.Resolve(ref); err != nil || got.ID != snap.ID {
			t.Errorf("Resolve(%q) = %v, %v", ref, got, err)
		}
	}
	if _, err := store.Resolve("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreDelete(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	snap := NewSnapshot(makeReport(t, "v1", looseDOT, false), []byte(looseDOT), "")
	if err := store.Save(snap, []byte(looseDOT)); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(snap.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(store.List()) != 0 {
		t.Error("index still lists deleted snapshot")
	}
	if _, err := store.Load(snap.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestDiff(t *testing.T) {
	old := makeReport(t, "tight", tightDOT, true)
	new := makeReport(t, "loose", looseDOT, true)

	d := Diff(old, new)

	if !d.Improved {
		t.Error("expected improvement")
	}
	// tight: 4 nodes, 5 edges -> 1.25; loose: 6 nodes, 3 edges -> 0.5
	if d.CouplingChange != -0.75 {
		t.Errorf("coupling change = %v, want -0.75", d.CouplingChange)
	}
	nodes, ok := d.Metric("node_count")
	if !ok || nodes.Old != 4 || nodes.New != 6 || nodes.Delta != 2 {
		t.Errorf("node_count delta = %+v", nodes)
	}
	circ, _ := d.Metric("circular_reference_pairs")
	if circ.Old != 2 || circ.New != 0 {
		t.Errorf("circular delta = %+v", circ)
	}
	// var.x stays a hub; the loose graph's threshold drops to 1.
	if len(d.HubsAdded) != 2 || d.HubsAdded[0] != "var.y" || d.HubsAdded[1] != "var.z" {
		t.Errorf("hubs added = %v", d.HubsAdded)
	}
	if len(d.HubsRemoved) != 0 {
		t.Errorf("hubs removed = %v", d.HubsRemoved)
	}

	var varDelta *CategoryDelta
	for i := range d.Categories {
		if d.Categories[i].Category == depgraph.CategoryVariable {
			varDelta = &d.Categories[i]
		}
	}
	if varDelta == nil || varDelta.Old != 1 || varDelta.New != 3 || varDelta.Delta != 2 {
		t.Errorf("variable category delta = %+v", varDelta)
	}
}

func TestDiff_NoCategoriesWithoutViews(t *testing.T) {
	d := Diff(makeReport(t, "a", looseDOT, false), makeReport(t, "b", looseDOT, true))
	if len(d.Categories) != 0 {
		t.Errorf("expected no category deltas, got %v", d.Categories)
	}
	if d.Improved || d.CouplingChange != 0 {
		t.Errorf("identical graphs should not improve: %+v", d)
	}
}

func TestFormatDiff(t *testing.T) {
	d := Diff(makeReport(t, "tight", tightDOT, false), makeReport(t, "loose", looseDOT, false))
	out := FormatDiff(d)
	for _, want := range []string{"tight → loose", "coupling_score", "-0.7500", "New hubs: var.y, var.z", "Coupling improved"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
