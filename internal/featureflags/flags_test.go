package featureflags

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled(t *testing.T) {
	cases := map[string]bool{
		"true": true, "1": true, "YES": true, " on ": true,
		"": false, "false": false, "0": false, "enabled": false,
	}
	for v, want := range cases {
		t.Setenv("FLAG_STRICT_DELETE", v)
		assert.Equal(t, want, Enabled(StrictDelete), "value %q", v)
	}
}

func TestSnapshotAndLogAttrs(t *testing.T) {
	t.Setenv("FLAG_STRICT_DELETE", "true")

	snap := Snapshot()
	assert.Equal(t, map[string]bool{StrictDelete: true}, snap)
	assert.Equal(t, []any{slog.Bool(StrictDelete, true)}, LogAttrs(snap))
}
