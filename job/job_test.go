package job

import "testing"

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusError, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusComplete, false},
		{StatusProcessing, StatusProcessing, true},
		{StatusProcessing, StatusComplete, true},
		{StatusProcessing, StatusError, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusComplete, StatusProcessing, false},
		{StatusComplete, StatusError, false},
		{StatusError, StatusProcessing, false},
		{StatusCancelled, StatusComplete, false},
		{StatusCancelled, StatusCancelled, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPending, false},
		{StatusProcessing, false},
		{StatusComplete, true},
		{StatusError, true},
		{StatusCancelled, true},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}
