package hazards_test

import (
	"testing"

	"github.com/JaimeStill/haccp/internal/hazards"
)

func TestCanExport(t *testing.T) {
	t.Run("nil session", func(t *testing.T) {
		if hazards.CanExport(nil) {
			t.Error("CanExport(nil) = true")
		}
	})

	t.Run("empty session", func(t *testing.T) {
		s := hazards.NewSession()
		if !s.Summary().Complete {
			t.Error("empty session should be vacuously complete")
		}
		if hazards.CanExport(s) {
			t.Error("CanExport(empty) = true")
		}
	})

	t.Run("indeterminate hazard blocks export", func(t *testing.T) {
		s := hazards.NewSession()
		s.AddHazard("h1")
		s.AddHazard("h2")
		s.UpdateAnswer("h1", hazards.Q1, hazards.No)

		if hazards.CanExport(s) {
			t.Error("CanExport = true with h2 indeterminate")
		}
	})

	t.Run("later edit flips the gate", func(t *testing.T) {
		s := hazards.NewSession()
		s.AddHazard("h1")
		s.UpdateAnswer("h1", hazards.Q1, hazards.No)

		if !hazards.CanExport(s) {
			t.Fatal("CanExport = false with every hazard classified")
		}

		s.UpdateAnswer("h1", hazards.Q1, hazards.Unknown)
		if hazards.CanExport(s) {
			t.Error("CanExport = true after answer reset to unknown")
		}
	})

	t.Run("removing the last pending hazard opens the gate", func(t *testing.T) {
		s := hazards.NewSession()
		s.AddHazard("h1")
		s.AddHazard("h2")
		s.UpdateAnswer("h1", hazards.Q1, hazards.No)

		if err := s.RemoveHazard("h2"); err != nil {
			t.Fatalf("RemoveHazard: %v", err)
		}
		if !hazards.CanExport(s) {
			t.Error("CanExport = false after removing the indeterminate hazard")
		}
	})
}
