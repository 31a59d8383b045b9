package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nyrich/Safeguard-Sudo-Menu/internal/testutil"
)

// testEnv wires stub binaries and a config file for command-level tests.
type testEnv struct {
	cfgPath        string
	root           string
	oplogPath      string
	pmpolicyRecord string
	pmcheckRecord  string
}

// setupEnv creates a pmpolicy stub whose checkout populates a default
// policy, and a pmcheck stub exiting with pmcheckExit.
func setupEnv(t *testing.T, pmcheckExit int) testEnv {
	t.Helper()
	dir := t.TempDir()

	pmpolicy, pmpolicyRecord := testutil.CheckoutTool(t, dir)
	pmcheck, pmcheckRecord := testutil.RecordingTool(t, dir, "pmcheck", pmcheckExit)

	env := testEnv{
		cfgPath:        filepath.Join(dir, "pmmenu.yaml"),
		root:           filepath.Join(dir, "policydir"),
		oplogPath:      filepath.Join(dir, "pmmenu.log"),
		pmpolicyRecord: pmpolicyRecord,
		pmcheckRecord:  pmcheckRecord,
	}

	cfg := fmt.Sprintf(`workspace_root: %s
oplog_path: %s
tools:
  pmpolicy: %s
  pmcheck: %s
`, env.root, env.oplogPath, pmpolicy, pmcheck)
	if err := os.WriteFile(env.cfgPath, []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}
	return env
}

// execute runs the CLI with captured output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestPolicyLifecycle(t *testing.T) {
	env := setupEnv(t, 0)

	// Checkout.
	out, err := execute(t, "--config", env.cfgPath, "policy", "checkout")
	if err != nil {
		t.Fatalf("checkout failed: %v\n%s", err, out)
	}
	if _, statErr := os.Stat(filepath.Join(env.root, "sudoers", "sudoers")); statErr != nil {
		t.Fatal("checkout did not materialize the default policy")
	}

	// Fresh checkout: no custom policies.
	out, err = execute(t, "--config", env.cfgPath, "policy", "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "No custom policies found.") {
		t.Errorf("list output = %q, want empty-workspace message", out)
	}

	// Create.
	out, err = execute(t, "--config", env.cfgPath, "policy", "create", "webservers")
	if err != nil {
		t.Fatalf("create failed: %v\n%s", err, out)
	}

	// Discovery now includes the new policy with its rule file.
	out, err = execute(t, "--config", env.cfgPath, "policy", "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "webservers") || !strings.Contains(out, "present") {
		t.Errorf("list output = %q, want webservers present", out)
	}

	// Validate.
	out, err = execute(t, "--config", env.cfgPath, "policy", "validate", "webservers")
	if err != nil {
		t.Fatalf("validate failed: %v\n%s", err, out)
	}

	// Add, then commit.
	out, err = execute(t, "--config", env.cfgPath, "policy", "add", "webservers", "--desc", "web tier", "--yes")
	if err != nil {
		t.Fatalf("add failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "commit") {
		t.Errorf("add output = %q, want reminder that commit is still required", out)
	}

	out, err = execute(t, "--config", env.cfgPath, "policy", "commit", "--yes")
	if err != nil {
		t.Fatalf("commit failed: %v\n%s", err, out)
	}

	calls := testutil.Invocations(t, env.pmpolicyRecord)
	var addCall, commitCall string
	for _, c := range calls {
		if strings.HasPrefix(c, "add") {
			addCall = c
		}
		if strings.HasPrefix(c, "commit") {
			commitCall = c
		}
	}
	if addCall != "add -n -p webservers/sudoers -l web tier" {
		t.Errorf("pmpolicy add call = %q, want structured vector", addCall)
	}
	if commitCall != "commit" {
		t.Errorf("pmpolicy commit call = %q, want commit", commitCall)
	}

	// Every operation left a line in the operation log.
	logData, err := os.ReadFile(env.oplogPath)
	if err != nil {
		t.Fatalf("reading operation log: %v", err)
	}
	for _, op := range []string{"op=checkout", "op=create", "op=validate", "op=add", "op=commit"} {
		if !strings.Contains(string(logData), op) {
			t.Errorf("operation log missing %s:\n%s", op, logData)
		}
	}
}

func TestPolicyAdd_refusedWhenInvalid(t *testing.T) {
	env := setupEnv(t, 1) // pmcheck reports invalid syntax

	if _, err := execute(t, "--config", env.cfgPath, "policy", "checkout"); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "--config", env.cfgPath, "policy", "create", "webservers"); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "--config", env.cfgPath, "policy", "add", "webservers", "--desc", "web tier", "--yes")
	if err == nil {
		t.Fatalf("add should be refused for an invalid policy\n%s", out)
	}
	if !strings.Contains(err.Error(), "cannot add invalid policy") {
		t.Errorf("error = %q, want refusal message", err)
	}

	for _, c := range testutil.Invocations(t, env.pmpolicyRecord) {
		if strings.HasPrefix(c, "add") {
			t.Fatal("pmpolicy add was invoked despite failed validation")
		}
	}
}

func TestPolicyCommit_refusedWhenDefaultInvalid(t *testing.T) {
	env := setupEnv(t, 1)

	if _, err := execute(t, "--config", env.cfgPath, "policy", "checkout"); err != nil {
		t.Fatal(err)
	}

	_, err := execute(t, "--config", env.cfgPath, "policy", "commit", "--yes")
	if err == nil {
		t.Fatal("commit should be refused when the default policy fails validation")
	}

	for _, c := range testutil.Invocations(t, env.pmpolicyRecord) {
		if strings.HasPrefix(c, "commit") {
			t.Fatal("pmpolicy commit was invoked despite failed validation")
		}
	}
}

func TestPolicyCreate_invalidName(t *testing.T) {
	env := setupEnv(t, 0)
	if _, err := execute(t, "--config", env.cfgPath, "policy", "checkout"); err != nil {
		t.Fatal(err)
	}

	_, err := execute(t, "--config", env.cfgPath, "policy", "create", "bad name!")
	if err == nil {
		t.Fatal("create should fail for an invalid name")
	}
	if _, statErr := os.Stat(filepath.Join(env.root, "bad name!")); !os.IsNotExist(statErr) {
		t.Error("invalid create left a directory behind")
	}
}

func TestPolicyCheckout_existingRequiresConfirmation(t *testing.T) {
	env := setupEnv(t, 0)

	if _, err := execute(t, "--config", env.cfgPath, "policy", "checkout"); err != nil {
		t.Fatal(err)
	}

	// Second checkout without --yes on a non-terminal stdin must refuse.
	_, err := execute(t, "--config", env.cfgPath, "policy", "checkout")
	if err == nil {
		t.Fatal("overwrite checkout without confirmation should fail off-terminal")
	}
	if !strings.Contains(err.Error(), "--yes") {
		t.Errorf("error = %q, want pointer to --yes", err)
	}

	// With --yes the previous workspace is replaced.
	marker := filepath.Join(env.root, "stale")
	if err := os.Mkdir(marker, 0755); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "--config", env.cfgPath, "policy", "checkout", "--yes"); err != nil {
		t.Fatal(err)
	}
	if _, statErr := os.Stat(marker); !os.IsNotExist(statErr) {
		t.Error("stale entry survived overwrite checkout")
	}
}

func TestPolicyClean(t *testing.T) {
	env := setupEnv(t, 0)

	if _, err := execute(t, "--config", env.cfgPath, "policy", "checkout"); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "--config", env.cfgPath, "policy", "clean", "--yes"); err != nil {
		t.Fatalf("clean failed: %v", err)
	}
	if _, statErr := os.Stat(env.root); !os.IsNotExist(statErr) {
		t.Fatal("workspace still exists after clean")
	}

	// Discovery after clean reports "not checked out", never stale data.
	_, err := execute(t, "--config", env.cfgPath, "policy", "list")
	if err == nil || !strings.Contains(err.Error(), "not checked out") {
		t.Errorf("list after clean = %v, want workspace-not-checked-out", err)
	}

	// A second clean is a warning, not an error.
	out, err := execute(t, "--config", env.cfgPath, "policy", "clean", "--yes")
	if err != nil {
		t.Fatalf("clean of absent workspace should be a no-op, got %v", err)
	}
	if !strings.Contains(out, "Nothing to clean") {
		t.Errorf("output = %q, want no-op warning", out)
	}
}

func TestPolicyList_filterAndJSON(t *testing.T) {
	env := setupEnv(t, 0)

	if _, err := execute(t, "--config", env.cfgPath, "policy", "checkout"); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"web-prod", "web-dev", "db-prod"} {
		if _, err := execute(t, "--config", env.cfgPath, "policy", "create", name); err != nil {
			t.Fatal(err)
		}
	}

	out, err := execute(t, "--config", env.cfgPath, "policy", "list", "--filter", "web-*")
	if err != nil {
		t.Fatalf("list --filter failed: %v", err)
	}
	if !strings.Contains(out, "web-prod") || !strings.Contains(out, "web-dev") {
		t.Errorf("output = %q, want both web policies", out)
	}
	if strings.Contains(out, "db-prod") {
		t.Errorf("output = %q, db-prod should be filtered out", out)
	}

	out, err = execute(t, "--config", env.cfgPath, "policy", "list", "--json")
	if err != nil {
		t.Fatalf("list --json failed: %v", err)
	}
	if !strings.Contains(out, `"name": "web-prod"`) || !strings.Contains(out, `"has_rule_file": true`) {
		t.Errorf("json output = %q, want policy objects", out)
	}
}

func TestPolicyValidate_all(t *testing.T) {
	env := setupEnv(t, 0)

	if _, err := execute(t, "--config", env.cfgPath, "policy", "checkout"); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"alpha", "beta"} {
		if _, err := execute(t, "--config", env.cfgPath, "policy", "create", name); err != nil {
			t.Fatal(err)
		}
	}

	out, err := execute(t, "--config", env.cfgPath, "policy", "validate", "--all")
	if err != nil {
		t.Fatalf("validate --all failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "[1/2]") || !strings.Contains(out, "[2/2]") {
		t.Errorf("output = %q, want progress counters", out)
	}
}

func TestPolicyStatus(t *testing.T) {
	env := setupEnv(t, 0)

	out, err := execute(t, "--config", env.cfgPath, "policy", "status")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, "not checked out") {
		t.Errorf("output = %q, want not-checked-out state", out)
	}

	if _, err := execute(t, "--config", env.cfgPath, "policy", "checkout"); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "--config", env.cfgPath, "policy", "create", "webservers"); err != nil {
		t.Fatal(err)
	}

	out, err = execute(t, "--config", env.cfgPath, "policy", "status")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, "Custom policies: 1") || !strings.Contains(out, "Default policy: present") {
		t.Errorf("output = %q, want counts", out)
	}
}

func TestWorkspaceFlagOverride(t *testing.T) {
	env := setupEnv(t, 0)
	override := filepath.Join(t.TempDir(), "otherdir")

	if _, err := execute(t, "--config", env.cfgPath, "--workspace", override, "policy", "checkout"); err != nil {
		t.Fatal(err)
	}
	if _, statErr := os.Stat(filepath.Join(override, "sudoers", "sudoers")); statErr != nil {
		t.Error("checkout ignored the --workspace override")
	}
	if _, statErr := os.Stat(env.root); !os.IsNotExist(statErr) {
		t.Error("checkout used the config root despite the override")
	}
}
