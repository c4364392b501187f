package plugin

import (
	"testing"
)

func TestUIDDeterministic(t *testing.T) {
	info := Info{ID: "com.plugcore.simplesynth"}
	if info.UID() != info.UID() {
		t.Error("UID generation is not deterministic")
	}
	if info.UID().Version() != 5 {
		t.Errorf("UID version = %d, want 5 (SHA-1 name based)", info.UID().Version())
	}
}

func TestUIDUniqueness(t *testing.T) {
	ids := []string{
		"com.company1.plugin1",
		"com.company1.plugin2",
		"com.company2.plugin1",
		"com.different.name",
	}

	seen := make(map[string]string)
	for _, id := range ids {
		uid := Info{ID: id}.UID().String()
		if prev, ok := seen[uid]; ok {
			t.Errorf("UID collision between %s and %s", id, prev)
		}
		seen[uid] = id
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		info    Info
		wantErr bool
	}{
		{"valid", Info{ID: "com.example.synth", Name: "Synth"}, false},
		{"empty id", Info{Name: "Synth"}, true},
		{"space in id", Info{ID: "com.example my", Name: "Synth"}, true},
		{"empty name", Info{ID: "com.example.synth"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.info.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
