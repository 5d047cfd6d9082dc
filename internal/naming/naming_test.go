package naming

import (
	"strings"
	"testing"
)

func TestDerive(t *testing.T) {
	tests := []struct {
		name     string
		fullName string
		method   string
		color    string
		jobID    string
		original string
		want     string
	}{
		{
			name:     "first and last name",
			fullName: "Jane Doe",
			method:   "Filament",
			color:    "Blue",
			jobID:    "53dc535a-3f5a-4f81-83d6-af6a6558df18",
			original: "model.stl",
			want:     "JaneDoe_Filament_Blue_53dc535a.stl",
		},
		{
			name:     "middle names use first and last",
			fullName: "Jane Q. van Doe",
			method:   "Filament",
			color:    "Blue",
			jobID:    "53dc535a-3f5a-4f81-83d6-af6a6558df18",
			original: "model.stl",
			want:     "JanevanDoe_Filament_Blue_53dc535a.stl",
		},
		{
			name:     "single name",
			fullName: "Cher",
			method:   "Resin",
			color:    "Clear",
			jobID:    "abcdef12-3456-7890-abcd-ef1234567890",
			original: "ring.3MF",
			want:     "Cher_Resin_Clear_abcdef12.3mf",
		},
		{
			name:     "empty name falls back to placeholder",
			fullName: "   ",
			method:   "Filament",
			color:    "Gray",
			jobID:    "abcdef12-3456-7890-abcd-ef1234567890",
			original: "part.obj",
			want:     "Unknown_Filament_Gray_abcdef12.obj",
		},
		{
			name:     "punctuation stripped everywhere",
			fullName: "Mary-Jane O'Neill",
			method:   "Fila ment",
			color:    "True Red",
			jobID:    "11112222-3333-4444-5555-666677778888",
			original: "widget.STEP",
			want:     "MaryJaneONeill_Filament_TrueRed_11112222.step",
		},
		{
			name:     "no extension",
			fullName: "Jane Doe",
			method:   "Filament",
			color:    "Blue",
			jobID:    "53dc535a-3f5a-4f81-83d6-af6a6558df18",
			original: "model",
			want:     "JaneDoe_Filament_Blue_53dc535a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Derive(tt.fullName, tt.method, tt.color, tt.jobID, tt.original)
			if got != tt.want {
				t.Errorf("Derive() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDerive_Deterministic(t *testing.T) {
	a := Derive("Jane Doe", "Filament", "Blue", "53dc535a-3f5a-4f81-83d6-af6a6558df18", "model.stl")
	b := Derive("Jane Doe", "Filament", "Blue", "53dc535a-3f5a-4f81-83d6-af6a6558df18", "model.stl")
	if a != b {
		t.Errorf("Derive() not deterministic: %q vs %q", a, b)
	}
}

func TestDerive_JobIDChangesOnlyShortID(t *testing.T) {
	a := Derive("Jane Doe", "Filament", "Blue", "53dc535a-3f5a-4f81-83d6-af6a6558df18", "model.stl")
	b := Derive("Jane Doe", "Filament", "Blue", "99998888-3f5a-4f81-83d6-af6a6558df18", "model.stl")

	partsA := strings.Split(a, "_")
	partsB := strings.Split(b, "_")
	if len(partsA) != 4 || len(partsB) != 4 {
		t.Fatalf("unexpected segment count: %q, %q", a, b)
	}
	for i := 0; i < 3; i++ {
		if partsA[i] != partsB[i] {
			t.Errorf("segment %d changed with job id: %q vs %q", i, partsA[i], partsB[i])
		}
	}
	if partsA[3] == partsB[3] {
		t.Error("short id segment did not change with job id")
	}
}
