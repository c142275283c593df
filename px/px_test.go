package px

import "testing"

func TestParseRepository(t *testing.T) {
	tests := []struct {
		name string
		want Repository
	}{
		{"PRIDE", RepositoryPRIDE},
		{"PrideArchive", RepositoryPRIDE},
		{"MassIVE", RepositoryMassIVE},
		{"massive.ucsd.edu", RepositoryMassIVE},
		{"jPOST Repository", RepositoryJPOST},
		{"JPOST", RepositoryJPOST},
		{"iProX", RepositoryIProX},
		{"PeptideAtlas", RepositoryUnknown},
		{"", RepositoryUnknown},
		{"something else", RepositoryUnknown},
	}

	for _, tt := range tests {
		if got := ParseRepository(tt.name); got != tt.want {
			t.Errorf("ParseRepository(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDetectRepositoryName(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Dataset announced via PRIDE on 2020-01-01", "PRIDE"},
		{"hosted at massive.ucsd.edu", "MassIVE"},
		{"available from the peptideatlas builds", "PeptideAtlas"},
		{"no archive mentioned here", ""},
	}

	for _, tt := range tests {
		if got := DetectRepositoryName(tt.text); got != tt.want {
			t.Errorf("DetectRepositoryName(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestCrossRefsLookup(t *testing.T) {
	refs := CrossRefs{
		{Name: "ProteomeXchange accession number", Value: "PXD000001"},
		{Name: "MassIVE dataset identifier", Value: "MSV000078556"},
		{Name: "jPOST dataset identifier", Value: "JPST000001"},
	}

	if v, ok := refs.Lookup("massive"); !ok || v != "MSV000078556" {
		t.Errorf("Lookup(massive) = %q, %v", v, ok)
	}
	if _, ok := refs.Lookup("iprox"); ok {
		t.Error("Lookup(iprox) should miss")
	}

	if v, ok := refs.ValueWithPrefix("JPST"); !ok || v != "JPST000001" {
		t.Errorf("ValueWithPrefix(JPST) = %q, %v", v, ok)
	}
	if _, ok := refs.ValueWithPrefix("IPX"); ok {
		t.Error("ValueWithPrefix(IPX) should miss")
	}
}

func TestResultRepositoryName(t *testing.T) {
	r := Result{Repository: RepositoryPRIDE, DeclaredRepository: "PRIDE"}
	if got := r.RepositoryName(); got != "PRIDE" {
		t.Errorf("RepositoryName() = %q", got)
	}

	// An archive we recognize by name but cannot query keeps its declared name.
	r = Result{Repository: RepositoryUnknown, DeclaredRepository: "PeptideAtlas"}
	if got := r.RepositoryName(); got != "PeptideAtlas" {
		t.Errorf("RepositoryName() = %q", got)
	}

	r = Result{Repository: RepositoryUnknown}
	if got := r.RepositoryName(); got != "Unknown" {
		t.Errorf("RepositoryName() = %q", got)
	}
}

func TestTotalSizeGB(t *testing.T) {
	r := Result{TotalSizeBytes: 3 * 1024 * 1024 * 1024}
	if got := r.TotalSizeGB(); got != 3.0 {
		t.Errorf("TotalSizeGB() = %v, want 3.0", got)
	}
}
