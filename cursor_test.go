package pallet

import (
	"testing"
)

func TestCursorMatchesArchetypes(t *testing.T) {
	pos := FactoryNewComponent[Position]()
	vel := FactoryNewComponent[Velocity]()
	health := FactoryNewComponent[Health]()

	scn := Factory.NewScene()
	if _, err := scn.SpawnN(10, pos); err != nil {
		t.Fatalf("SpawnN() error = %v", err)
	}
	if _, err := scn.SpawnN(20, pos, vel); err != nil {
		t.Fatalf("SpawnN() error = %v", err)
	}
	if _, err := scn.SpawnN(30, pos, vel, health); err != nil {
		t.Fatalf("SpawnN() error = %v", err)
	}

	tests := []struct {
		name       string
		components []Component
		want       int
	}{
		{"All with Pos", []Component{pos}, 60},
		{"Pos and Vel", []Component{pos, vel}, 50},
		{"Full set", []Component{pos, vel, health}, 30},
		{"Unmatched", []Component{health, FactoryNewComponent[Name]()}, 0},
		{"Empty set matches everything", nil, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cursor := Factory.NewCursor(scn, tt.components...)
			if got := cursor.TotalMatched(); got != tt.want {
				t.Errorf("TotalMatched() = %d, want %d", got, tt.want)
			}
			if scn.Locked() {
				t.Error("scene still locked after TotalMatched")
			}

			count := 0
			cursor = Factory.NewCursor(scn, tt.components...)
			for cursor.Next() {
				count++
			}
			if count != tt.want {
				t.Errorf("Next() loop visited %d entities, want %d", count, tt.want)
			}
			if scn.Locked() {
				t.Error("scene still locked after exhausted iteration")
			}
		})
	}
}

func TestCursorAccessors(t *testing.T) {
	pos := FactoryNewComponent[Position]()
	vel := FactoryNewComponent[Velocity]()

	scn := Factory.NewScene()
	ent, err := scn.Spawn(pos.With(Position{X: 1, Y: 2, Z: 3}), vel.With(Velocity{X: 4, Y: 5, Z: 6}))
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}

	cursor := Factory.NewCursor(scn, pos, vel)
	if !cursor.Next() {
		t.Fatal("Next() = false with one matching entity")
	}

	if got := cursor.CurrentEntity(); got != ent {
		t.Errorf("CurrentEntity() = %v, want %v", got, ent)
	}
	p := pos.GetFromCursor(cursor)
	if *p != (Position{X: 1, Y: 2, Z: 3}) {
		t.Errorf("GetFromCursor() = %v", *p)
	}
	// cursor access is mutable: writes land in the chunk
	p.X = 42

	if ok, _ := FactoryNewComponent[Health]().GetFromCursorSafe(cursor); ok {
		t.Error("GetFromCursorSafe() = true for an absent component")
	}
	if !vel.CheckCursor(cursor) {
		t.Error("CheckCursor() = false for a stored component")
	}

	if cursor.Next() {
		t.Error("Next() = true past the last entity")
	}

	got, _ := Get[Position](scn, ent)
	if got.X != 42 {
		t.Errorf("cursor write not visible: X = %d, want 42", got.X)
	}
}

func TestCursorChunkIteration(t *testing.T) {
	pos := FactoryNewComponent[Position]()
	scn := Factory.NewScene()

	// spill across several chunks
	if _, err := scn.SpawnN(2_000, pos); err != nil {
		t.Fatalf("SpawnN() error = %v", err)
	}
	arch, _ := scn.Archetype(pos)
	capacity := arch.Layout().Capacity()

	cursor := Factory.NewCursor(scn, pos)
	total := 0
	chunks := 0
	for chunk := range cursor.Chunks() {
		chunks++
		total += len(Components[Position](chunk))
	}

	if total != 2_000 {
		t.Errorf("chunk iteration covered %d entities, want 2000", total)
	}
	wantChunks := (2_000 + capacity - 1) / capacity
	if chunks != wantChunks {
		t.Errorf("visited %d chunks, want %d", chunks, wantChunks)
	}
}

func TestCursorLocksScene(t *testing.T) {
	pos := FactoryNewComponent[Position]()
	scn := Factory.NewScene()
	if _, err := scn.SpawnN(3, pos); err != nil {
		t.Fatalf("SpawnN() error = %v", err)
	}

	cursor := Factory.NewCursor(scn, pos)
	if !cursor.Next() {
		t.Fatal("Next() = false")
	}
	if !scn.Locked() {
		t.Fatal("scene not locked during iteration")
	}

	// mutation mid-iteration must be deferred
	if err := scn.EnqueueSpawn(2, pos); err != nil {
		t.Fatalf("EnqueueSpawn() error = %v", err)
	}
	if scn.EntityCount() != 3 {
		t.Fatal("enqueued spawn applied mid-iteration")
	}

	for cursor.Next() {
	}
	if scn.Locked() {
		t.Fatal("scene still locked after iteration")
	}
	if scn.EntityCount() != 5 {
		t.Errorf("EntityCount() = %d after drain, want 5", scn.EntityCount())
	}
}
