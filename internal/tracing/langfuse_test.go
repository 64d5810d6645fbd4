package tracing

import "testing"

func TestSetupWithoutCredentials(t *testing.T) {
	t.Setenv("LANGFUSE_PUBLIC_KEY", "")
	t.Setenv("LANGFUSE_SECRET_KEY", "")

	handler, flush, ok := Setup()
	if ok || handler != nil || flush != nil {
		t.Error("Setup without keys should report tracing disabled")
	}
}
