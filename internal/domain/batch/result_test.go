package batch

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/georecon/internal/domain/candidate"
	"github.com/kailas-cloud/georecon/internal/domain/entity"
)

func TestNewOK(t *testing.T) {
	e, err := entity.New(entity.Params{ID: "1", PrimaryName: "Paris", Class: entity.ClassPopulated})
	if err != nil {
		t.Fatalf("entity.New: %v", err)
	}
	r := NewOK("q0", []candidate.Candidate{candidate.New(&e, "", 100)})
	if r.Key() != "q0" {
		t.Errorf("Key() = %q", r.Key())
	}
	if r.Status() != StatusOK {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusOK)
	}
	if r.Err() != nil {
		t.Errorf("Err() = %v, want nil", r.Err())
	}
	if len(r.Candidates()) != 1 || r.Candidates()[0].Name() != "Paris" {
		t.Errorf("Candidates() = %v", r.Candidates())
	}
}

func TestNewOK_NilCandidatesBecomeEmpty(t *testing.T) {
	r := NewOK("q1", nil)
	if r.Candidates() == nil {
		t.Fatal("Candidates() must not be nil")
	}
}

func TestNewError(t *testing.T) {
	err := errors.New("something failed")
	r := NewError("q2", err)
	if r.Key() != "q2" {
		t.Errorf("Key() = %q", r.Key())
	}
	if r.Status() != StatusError {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusError)
	}
	if !errors.Is(r.Err(), err) {
		t.Errorf("Err() = %v, want %v", r.Err(), err)
	}
	if r.Candidates() == nil || len(r.Candidates()) != 0 {
		t.Errorf("Candidates() = %v, want empty", r.Candidates())
	}
}

func TestStatusConstants(t *testing.T) {
	if StatusOK != "ok" {
		t.Errorf("StatusOK = %q", StatusOK)
	}
	if StatusError != "error" {
		t.Errorf("StatusError = %q", StatusError)
	}
}
