package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const (
	// DefaultPolicyName is the reserved name of the canonical sudo rules
	// policy present in every checkout.
	DefaultPolicyName = "sudoers"

	// RuleFileName is the primary rule file inside each policy directory.
	RuleFileName = "sudoers"

	// hiddenPrefix marks entries excluded from discovery (version-control
	// artifacts and other hidden directories).
	hiddenPrefix = "."
)

// Sentinel errors. Commands match these with errors.Is to decide between
// a hard failure, a precondition message, and a warning-level no-op.
var (
	ErrNotCheckedOut    = errors.New("workspace not checked out")
	ErrWorkspaceExists  = errors.New("workspace already exists")
	ErrInvalidName      = errors.New("invalid policy name")
	ErrPolicyExists     = errors.New("policy already exists")
	ErrNoRuleFile       = errors.New("policy rule file not found")
	ErrValidationFailed = errors.New("policy failed validation")
)

var validName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// RepoTool is the subset of the policy repository tool the manager needs.
type RepoTool interface {
	Checkout(dest string) error
	Add(workspace, relPath, description string) error
	Commit(workspace string) error
}

// Validator checks rule file syntax without applying it.
type Validator interface {
	Valid(file, mode string) (bool, error)
}

// Policy is one named entry discovered under the workspace root.
type Policy struct {
	Name        string `json:"name"`
	HasRuleFile bool   `json:"has_rule_file"`
}

// Manager mediates all access to the single workspace at a fixed root.
type Manager struct {
	root  string
	repo  RepoTool
	check Validator
	mode  string

	now func() time.Time
}

// New creates a manager for the workspace at root. mode is passed to the
// validator on every check.
func New(root string, repo RepoTool, check Validator, mode string) *Manager {
	return &Manager{root: root, repo: repo, check: check, mode: mode, now: time.Now}
}

// Root returns the workspace root path.
func (m *Manager) Root() string { return m.root }

// Exists reports whether a checkout is present at the root.
func (m *Manager) Exists() bool {
	info, err := os.Stat(m.root)
	return err == nil && info.IsDir()
}

// RuleFile returns the primary rule file path for a policy name.
func (m *Manager) RuleFile(name string) string {
	return filepath.Join(m.root, name, RuleFileName)
}

// DefaultRuleFile returns the rule file path of the reserved default policy.
func (m *Manager) DefaultRuleFile() string {
	return m.RuleFile(DefaultPolicyName)
}

// Checkout fetches a fresh workspace from the remote repository. An
// existing workspace is refused unless overwrite is set, in which case it
// is fully removed first. Failure from the repository tool is surfaced
// as-is; whatever partial state the tool left stays on disk.
func (m *Manager) Checkout(overwrite bool) error {
	if m.Exists() {
		if !overwrite {
			return fmt.Errorf("%w at %s", ErrWorkspaceExists, m.root)
		}
		if err := os.RemoveAll(m.root); err != nil {
			return fmt.Errorf("removing previous workspace: %w", err)
		}
	}
	if err := m.repo.Checkout(m.root); err != nil {
		return fmt.Errorf("checking out policy repository: %w", err)
	}
	return nil
}

// DiscoverPolicies lists custom policies: immediate subdirectories of the
// root, excluding the reserved default name and hidden entries. It is
// read-only and idempotent; callers must not rely on the ordering beyond
// stable display.
func (m *Manager) DiscoverPolicies() ([]Policy, error) {
	if !m.Exists() {
		return nil, ErrNotCheckedOut
	}

	entries, err := os.ReadDir(m.root)
	if err != nil {
		return nil, fmt.Errorf("reading workspace: %w", err)
	}

	var policies []Policy
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		if name == DefaultPolicyName || strings.HasPrefix(name, hiddenPrefix) {
			continue
		}

		_, statErr := os.Stat(m.RuleFile(name))
		policies = append(policies, Policy{
			Name:        name,
			HasRuleFile: statErr == nil,
		})
	}
	return policies, nil
}

// CreatePolicy creates a new policy directory with a rule file ready for
// editing. The template is a verbatim copy of the default policy's rule
// file when present, otherwise the built-in boilerplate with the policy
// name and creation time substituted. A failed template write removes the
// directory again so no half-created policy remains.
func (m *Manager) CreatePolicy(name string) error {
	if !m.Exists() {
		return ErrNotCheckedOut
	}
	if !validName.MatchString(name) {
		return fmt.Errorf("%w: %q (letters, digits, underscore and hyphen only)", ErrInvalidName, name)
	}
	if name == DefaultPolicyName {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidName, name)
	}

	dir := filepath.Join(m.root, name)
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("%w: %q (edit the existing policy instead)", ErrPolicyExists, name)
	}

	if err := os.Mkdir(dir, 0755); err != nil {
		return fmt.Errorf("creating policy directory: %w", err)
	}

	if err := m.writeTemplate(name); err != nil {
		_ = os.RemoveAll(dir)
		return err
	}
	return nil
}

func (m *Manager) writeTemplate(name string) error {
	var content []byte
	if data, err := os.ReadFile(m.DefaultRuleFile()); err == nil {
		content = data
	} else {
		content = []byte(fmt.Sprintf(boilerplate, name, m.now().Format("2006-01-02 15:04:05")))
	}

	if err := os.WriteFile(m.RuleFile(name), content, 0644); err != nil {
		return fmt.Errorf("writing rule file for %s: %w", name, err)
	}
	return nil
}

// boilerplate is the rule file seeded when no default policy exists to
// copy from.
const boilerplate = `# Policy: %s
# Created: %s
#
# Sudo rules for this policy. One rule per line, for example:
#   %%admins ALL=(ALL) ALL
`

// ValidatePolicy re-runs the syntax validator against a policy's rule
// file. It never trusts a prior result; Add and Commit call it again
// themselves.
func (m *Manager) ValidatePolicy(name string) error {
	if !m.Exists() {
		return ErrNotCheckedOut
	}
	return m.validateFile(m.RuleFile(name), name)
}

// ValidateDefault checks the reserved default policy's rule file.
func (m *Manager) ValidateDefault() error {
	if !m.Exists() {
		return ErrNotCheckedOut
	}
	return m.validateFile(m.DefaultRuleFile(), DefaultPolicyName)
}

func (m *Manager) validateFile(file, label string) error {
	if _, err := os.Stat(file); err != nil {
		return fmt.Errorf("%w: %s", ErrNoRuleFile, file)
	}
	ok, err := m.check.Valid(file, m.mode)
	if err != nil {
		return fmt.Errorf("running validator on %s: %w", label, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrValidationFailed, label)
	}
	return nil
}

// AddPolicy stages a policy on the server with a description. Validation
// runs immediately before the add; an invalid policy is refused without
// invoking the repository tool. A successful add is not live until a
// subsequent Commit.
func (m *Manager) AddPolicy(name, description string) error {
	if err := m.ValidatePolicy(name); err != nil {
		if errors.Is(err, ErrValidationFailed) {
			return fmt.Errorf("cannot add invalid policy %q: fix the rule file and retry: %w", name, err)
		}
		return err
	}
	relPath := filepath.Join(name, RuleFileName)
	if err := m.repo.Add(m.root, relPath, description); err != nil {
		return fmt.Errorf("staging policy %s: %w", name, err)
	}
	return nil
}

// Commit applies staged changes to the live repository. When a default
// rule file is present it is re-validated first and the commit refused on
// failure. A failed commit leaves staged adds in place for a retry.
func (m *Manager) Commit() error {
	if !m.Exists() {
		return fmt.Errorf("nothing to commit: %w", ErrNotCheckedOut)
	}
	if _, err := os.Stat(m.DefaultRuleFile()); err == nil {
		if err := m.ValidateDefault(); err != nil {
			return fmt.Errorf("refusing commit: %w", err)
		}
	}
	if err := m.repo.Commit(m.root); err != nil {
		return fmt.Errorf("committing staged changes: %w", err)
	}
	return nil
}

// Clean irreversibly removes the workspace root. An absent workspace is
// reported via ErrNotCheckedOut so callers can warn instead of fail.
func (m *Manager) Clean() error {
	if !m.Exists() {
		return ErrNotCheckedOut
	}
	if filepath.Clean(m.root) == string(filepath.Separator) {
		return fmt.Errorf("refusing to remove root directory: %s", m.root)
	}
	if err := os.RemoveAll(m.root); err != nil {
		return fmt.Errorf("removing workspace: %w", err)
	}
	return nil
}
