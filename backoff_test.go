package phxkit

import (
	"testing"
	"time"
)

func TestRetryWait_Schedule(t *testing.T) {
	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		5 * time.Second,
		10 * time.Second,
		10 * time.Second,
	}
	for attempts, expected := range want {
		if got := retryWait(attempts); got != expected {
			t.Errorf("retryWait(%d) = %v, want %v", attempts, got, expected)
		}
	}
}

func TestRetryWait_Plateau(t *testing.T) {
	for _, attempts := range []int{3, 10, 1000} {
		if got := retryWait(attempts); got != retryPlateau {
			t.Errorf("retryWait(%d) = %v, want %v", attempts, got, retryPlateau)
		}
	}
}
