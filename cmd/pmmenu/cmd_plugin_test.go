package main

import (
	"testing"

	"github.com/nyrich/Safeguard-Sudo-Menu/internal/testutil"
)

func TestPluginActions_argVectors(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"plugin", "version"}, "-v"},
		{[]string{"plugin", "hosts"}, "-l"},
		{[]string{"plugin", "host", "web01"}, "-h web01"},
		{[]string{"plugin", "ping", "web01"}, "-t web01"},
		{[]string{"plugin", "config"}, "-c"},
	}
	for _, tt := range tests {
		t.Run(tt.args[1], func(t *testing.T) {
			cfgPath, records := adminEnv(t)
			if _, err := execute(t, append([]string{"--config", cfgPath}, tt.args...)...); err != nil {
				t.Fatalf("%v failed: %v", tt.args, err)
			}
			got := testutil.Invocations(t, records["pmplugininfo"])
			if len(got) != 1 || got[0] != tt.want {
				t.Errorf("pmplugininfo invocations = %v, want [%q]", got, tt.want)
			}
		})
	}
}

func TestPluginMenuCoversAllActions(t *testing.T) {
	if len(pluginActions) != 6 {
		t.Fatalf("pluginActions has %d entries, want 6", len(pluginActions))
	}
	for _, act := range pluginActions {
		if act.bin == nil {
			t.Errorf("action %s has no binary", act.use)
		}
	}
}
