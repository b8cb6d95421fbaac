package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapPreservesCode(t *testing.T) {
	base := MissingColumn("status")
	wrapped := Wrapf(base, "labeling %s", "is_success")

	assert.Equal(t, CodeMissingColumn, GetCode(wrapped))
	assert.Contains(t, wrapped.Error(), `column "status" not found`)
	assert.Contains(t, wrapped.Error(), "labeling is_success")
}

func TestWrapForeignError(t *testing.T) {
	wrapped := Wrap(fmt.Errorf("boom"), "reading")
	assert.Equal(t, CodeInternalError, GetCode(wrapped))
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestGetCodeThroughFmtWrapping(t *testing.T) {
	err := fmt.Errorf("step failed: %w", NotConverged("singular"))
	assert.Equal(t, CodeNotConverged, GetCode(err))
	assert.True(t, IsAppError(err))
	assert.Equal(t, "UNKNOWN", GetCode(fmt.Errorf("plain")))
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"nil", nil, false},
		{"missing file", FileNotFound("data.csv"), true},
		{"missing column", MissingColumn("sector"), true},
		{"malformed", MalformedData("bad row"), true},
		{"output", OutputError("figures", fmt.Errorf("denied")), true},
		{"degenerate", DegenerateSample("empty group"), false},
		{"not converged", Wrap(NotConverged("separation"), "logit"), false},
		{"foreign", fmt.Errorf("unknown"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fatal, IsFatal(tt.err))
		})
	}
}
