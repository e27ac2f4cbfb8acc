// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scene

import (
	"errors"
	"sync"
	"testing"

	"github.com/bureau-foundation/telecap/lib/foxglove"
)

func TestIDAllocatorMonotonic(t *testing.T) {
	ids := NewIDAllocator()
	for want := uint64(0); want < 5; want++ {
		if got := ids.Next(); got != want {
			t.Fatalf("Next() = %d, want %d", got, want)
		}
	}
}

func TestIDAllocatorConcurrentUnique(t *testing.T) {
	ids := NewIDAllocator()
	const workers, perWorker = 8, 100

	var mu sync.Mutex
	seen := make(map[uint64]bool)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := ids.Next()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if len(seen) != workers*perWorker {
		t.Fatalf("got %d unique ids, want %d", len(seen), workers*perWorker)
	}
}

func TestTableSharedAllocator(t *testing.T) {
	ids := NewIDAllocator()
	first := NewTable(ids)
	second := NewTable(ids)

	a := first.Create("robot", "world", false)
	b := second.Create("robot", "world", false)
	c := first.Create("other", "", true)
	if a == b || b == c || a == c {
		t.Fatalf("ids not unique across tables: %d %d %d", a, b, c)
	}
}

func TestUnknownObjectHasNoEffect(t *testing.T) {
	table := NewTable(nil)

	if err := table.Add("ghost", Cube{Pose: foxglove.Identity()}); !errors.Is(err, ErrUnknownObject) {
		t.Fatalf("Add on unknown object: err = %v, want ErrUnknownObject", err)
	}
	if err := table.AddMetadata("ghost", "k", "v"); !errors.Is(err, ErrUnknownObject) {
		t.Fatalf("AddMetadata on unknown object: err = %v", err)
	}
	if _, err := table.Update("ghost", 1); !errors.Is(err, ErrUnknownObject) {
		t.Fatalf("Update on unknown object: err = %v", err)
	}
	if table.Has("ghost") {
		t.Fatal("failed operations created the object")
	}
}

func TestUpdateReplacesByID(t *testing.T) {
	table := NewTable(nil)
	id := table.Create("o", "world", true)
	if err := table.Add("o", Cube{
		Pose:  foxglove.Identity(),
		Size:  foxglove.Vector3{X: 1, Y: 1, Z: 1},
		Color: &foxglove.Color{R: 1, A: 1},
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	first, err := table.Update("o", 1_000_000_000)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	second, err := table.Update("o", 1_000_000_001)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if first.Entities[0].ID != second.Deletions[0].ID {
		t.Errorf("second deletion id %q does not match first insertion id %q",
			second.Deletions[0].ID, first.Entities[0].ID)
	}
	if second.Entities[0].ID != first.Entities[0].ID {
		t.Errorf("entity id changed between writes")
	}
	if stored, _ := table.ID("o"); stored != id {
		t.Errorf("ID() = %d, want %d", stored, id)
	}

	entity := second.Entities[0]
	if entity.Timestamp != (foxglove.Time{Sec: 1, Nsec: 1}) {
		t.Errorf("timestamp = %+v", entity.Timestamp)
	}
	if second.Deletions[0].Timestamp != entity.Timestamp {
		t.Errorf("deletion timestamp %+v differs from entity %+v", second.Deletions[0].Timestamp, entity.Timestamp)
	}
	if !entity.FrameLocked || entity.FrameID != "world" {
		t.Errorf("frame fields = %q locked=%v", entity.FrameID, entity.FrameLocked)
	}
	if len(entity.Cubes) != 1 || entity.Cubes[0].Color != (foxglove.Color{R: 1, A: 1}) {
		t.Errorf("cubes = %+v", entity.Cubes)
	}
}

func TestUpdateAccumulatesEveryPrimitive(t *testing.T) {
	table := NewTable(nil)
	table.Create("o", "", false)

	pose := foxglove.Translation(1, 2, 3)
	primitives := []Primitive{
		Arrow{Pose: pose, ShaftLength: 1, ShaftDiameter: 0.1, HeadLength: 0.3, HeadDiameter: 0.2},
		Cube{Pose: pose},
		Sphere{Pose: pose},
		Cylinder{Pose: pose, BottomScale: 1, TopScale: 0, Color: &foxglove.Color{}},
		Line{Pose: pose, Points: []foxglove.Vector3{{}, {X: 1}}},
		Triangle{Pose: pose, Points: []foxglove.Vector3{{}, {X: 1}, {Y: 1}}, Indices: []uint32{0, 1, 2}},
		Text{Pose: pose, Text: "label", FontSize: 12},
	}
	for _, p := range primitives {
		if err := table.Add("o", p); err != nil {
			t.Fatalf("Add(%T): %v", p, err)
		}
	}
	_ = table.AddMetadata("o", "kind", "test")

	update, _ := table.Update("o", 0)
	entity := update.Entities[0]
	counts := map[string]int{
		"arrows": len(entity.Arrows), "cubes": len(entity.Cubes), "spheres": len(entity.Spheres),
		"cylinders": len(entity.Cylinders), "lines": len(entity.Lines), "triangles": len(entity.Triangles),
		"texts": len(entity.Texts), "metadata": len(entity.Metadata),
	}
	for kind, count := range counts {
		if count != 1 {
			t.Errorf("%s: %d entries, want 1", kind, count)
		}
	}
	if entity.Arrows[0].Pose.Position != (foxglove.Vector3{X: 1, Y: 2, Z: 3}) {
		t.Errorf("arrow position = %+v", entity.Arrows[0].Pose.Position)
	}
	if entity.Spheres[0].Color != foxglove.DefaultColor {
		t.Errorf("missing color not defaulted: %+v", entity.Spheres[0].Color)
	}
	if entity.Cylinders[0].Color != (foxglove.Color{}) {
		t.Errorf("transparent black replaced: %+v", entity.Cylinders[0].Color)
	}
	if entity.Lines[0].Colors == nil || entity.Lines[0].Indices == nil {
		t.Error("optional line arrays must be empty, not nil")
	}
	if entity.Models == nil {
		t.Error("models must be an empty array")
	}
}

func TestCreateResetsPrimitives(t *testing.T) {
	table := NewTable(nil)
	first := table.Create("o", "", false)
	_ = table.Add("o", Cube{})

	second := table.Create("o", "", false)
	if first == second {
		t.Fatal("re-create must allocate a fresh id")
	}
	update, _ := table.Update("o", 0)
	if len(update.Entities[0].Cubes) != 0 {
		t.Errorf("re-create kept %d cubes", len(update.Entities[0].Cubes))
	}
}

func TestConcurrentAddAndUpdate(t *testing.T) {
	table := NewTable(nil)
	table.Create("o", "", false)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = table.Add("o", Sphere{})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_, _ = table.Update("o", uint64(i))
		}
	}()
	wg.Wait()

	update, _ := table.Update("o", 0)
	if got := len(update.Entities[0].Spheres); got != 200 {
		t.Fatalf("spheres = %d, want 200", got)
	}
}
