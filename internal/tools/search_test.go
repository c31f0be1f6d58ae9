package tools

import (
	"context"
	"testing"
)

func TestSearchNotConfigured(t *testing.T) {
	c := NewSearchClient("", "")

	if c.Configured() {
		t.Error("Configured() should be false without credentials")
	}

	// Must return the fixed message without touching the network.
	result := c.Search(context.Background(), "golang", DefaultSearchResults)
	if result != NotConfiguredMessage {
		t.Errorf("result = %q, want not-configured message", result)
	}
}

func TestSearchPartialCredentialsNotConfigured(t *testing.T) {
	if NewSearchClient("key-only", "").Configured() {
		t.Error("api key alone should not count as configured")
	}
	if NewSearchClient("", "engine-only").Configured() {
		t.Error("engine id alone should not count as configured")
	}
	if !NewSearchClient("key", "engine").Configured() {
		t.Error("both credentials should count as configured")
	}
}
