package types

import (
	"encoding/json"
	"testing"
)

func TestPetProfileValidation(t *testing.T) {
	tests := []struct {
		name    string
		profile PetProfile
		wantErr error
	}{
		{
			name:    "valid profile",
			profile: PetProfile{Species: "cat"},
			wantErr: nil,
		},
		{
			name:    "empty species",
			profile: PetProfile{Breed: "ragdoll"},
			wantErr: ErrEmptySpecies,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if err != tt.wantErr {
				t.Errorf("PetProfile.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProductValidation(t *testing.T) {
	tests := []struct {
		name    string
		product Product
		wantErr error
	}{
		{
			name:    "valid product",
			product: Product{ID: "p-1", Name: "salmon recipe"},
			wantErr: nil,
		},
		{
			name:    "empty name",
			product: Product{ID: "p-1"},
			wantErr: ErrEmptyName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.product.Validate()
			if err != tt.wantErr {
				t.Errorf("Product.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProductLabel(t *testing.T) {
	p := Product{Brand: "Acme", Name: "Chicken Dinner"}
	if got := p.Label(); got != "Acme - Chicken Dinner" {
		t.Errorf("Label() = %q", got)
	}

	p.Brand = ""
	if got := p.Label(); got != "Chicken Dinner" {
		t.Errorf("Label() without brand = %q", got)
	}
}

func TestScoreRecordValidate(t *testing.T) {
	r := ScoreRecord{ProductID: "p-1", Overall: 88}
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	r.Overall = 120
	if err := r.Validate(); err != ErrInvalidScore {
		t.Errorf("Validate() error = %v, want ErrInvalidScore", err)
	}

	r.ClampOverall()
	if r.Overall != 100 {
		t.Errorf("ClampOverall() = %v, want 100", r.Overall)
	}

	r.Overall = -3
	r.ClampOverall()
	if r.Overall != 0 {
		t.Errorf("ClampOverall() = %v, want 0", r.Overall)
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusRunning.Terminal() {
		t.Error("running must not be terminal")
	}
	if !StatusCompleted.Terminal() {
		t.Error("completed must be terminal")
	}
	if !StatusFailed.Terminal() {
		t.Error("failed must be terminal")
	}
	if StatusNotFound.Terminal() {
		t.Error("not_found must not be terminal")
	}
}

func TestProgressSnapshotJSONRoundTrip(t *testing.T) {
	snap := ProgressSnapshot{
		SessionID:       "s-1",
		Status:          StatusRunning,
		ProgressPercent: 50,
		CompletedCount:  1,
		TotalCount:      2,
		CurrentItem:     "Acme - Chicken Dinner",
	}

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got ProgressSnapshot
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Status != StatusRunning || got.CompletedCount != 1 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Aggregate != nil {
		t.Error("aggregate should be absent on a running snapshot")
	}
}
