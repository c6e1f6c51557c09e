package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sarchlab/isrsim/insts"
)

var (
	// ErrInvalidIssueWidth is returned when the issue width is not positive.
	ErrInvalidIssueWidth = errors.New("issue width must be a positive integer")
	// ErrUnknownPolicy is returned for a policy selector outside the
	// supported set.
	ErrUnknownPolicy = errors.New("unknown scheduling policy")
	// ErrUnknownSetting is returned for a processor setting outside 1-4.
	ErrUnknownSetting = errors.New("unknown processor setting")
	// ErrInvalidRegisterCount is returned when the register count cannot
	// be addressed by insts.Register.
	ErrInvalidRegisterCount = insts.ErrInvalidRegisterCount
)

// Policy selects how instructions are issued and retired.
type Policy uint8

const (
	// InOrder issues only the oldest pending instruction and retires in
	// program order. With an issue width of 1 this is the single-issue
	// in-order processor.
	InOrder Policy = iota
	// OOOIssueInOrderRetire lets younger independent instructions issue
	// ahead of blocked older ones but retires in program order.
	OOOIssueInOrderRetire
	// OOOIssueAndRetire issues out of order and retires every completed
	// instruction immediately.
	OOOIssueAndRetire
)

var policyNames = map[Policy]string{
	InOrder:               "in-order",
	OOOIssueInOrderRetire: "ooo-issue-in-order-retire",
	OOOIssueAndRetire:     "ooo-issue-and-retire",
}

var policyAliases = map[string]Policy{
	"in-order":                  InOrder,
	"inorder":                   InOrder,
	"ooo-issue-in-order-retire": OOOIssueInOrderRetire,
	"ooo-in-order-retire":       OOOIssueInOrderRetire,
	"ooo-inorder":               OOOIssueInOrderRetire,
	"ooo-issue-and-retire":      OOOIssueAndRetire,
	"ooo":                       OOOIssueAndRetire,
}

// Policies lists every supported policy in declaration order.
func Policies() []Policy {
	return []Policy{InOrder, OOOIssueInOrderRetire, OOOIssueAndRetire}
}

// String returns the canonical policy name.
func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}

	return fmt.Sprintf("Policy(%d)", uint8(p))
}

// Valid returns true for a supported policy.
func (p Policy) Valid() bool {
	_, ok := policyNames[p]
	return ok
}

// OutOfOrderIssue returns true if younger instructions may issue ahead of
// older, blocked ones.
func (p Policy) OutOfOrderIssue() bool {
	return p == OOOIssueInOrderRetire || p == OOOIssueAndRetire
}

// InOrderRetire returns true if an instruction may retire only after its
// program-order predecessor has retired.
func (p Policy) InOrderRetire() bool {
	return p != OOOIssueAndRetire
}

// ParsePolicy converts a policy name into a Policy.
func ParsePolicy(name string) (Policy, error) {
	p, ok := policyAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}

	return p, nil
}

// SuperscalarConfig controls the policy and the superscalar execution width.
type SuperscalarConfig struct {
	// IssueWidth is the maximum number of instructions that can be issued
	// per cycle. Default is 1 (single-issue).
	IssueWidth int
	// Policy selects the issue and retirement discipline.
	Policy Policy
}

// DefaultSuperscalarConfig returns the default configuration (single-issue,
// in-order).
func DefaultSuperscalarConfig() SuperscalarConfig {
	return SuperscalarConfig{
		IssueWidth: 1,
		Policy:     InOrder,
	}
}

// Validate rejects non-positive widths and unknown policies.
func (c SuperscalarConfig) Validate() error {
	if c.IssueWidth < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidIssueWidth, c.IssueWidth)
	}

	if !c.Policy.Valid() {
		return fmt.Errorf("%w: %v", ErrUnknownPolicy, c.Policy)
	}

	return nil
}

// SettingConfig returns the configuration for one of the four processor
// settings:
//
//	1: single instruction, in-order execution (width forced to 1)
//	2: superscalar, in-order execution
//	3: superscalar, out-of-order issue, in-order retirement
//	4: superscalar, out-of-order issue and retirement
func SettingConfig(setting int, width int) (SuperscalarConfig, error) {
	var config SuperscalarConfig

	switch setting {
	case 1:
		config = SuperscalarConfig{IssueWidth: 1, Policy: InOrder}
	case 2:
		config = SuperscalarConfig{IssueWidth: width, Policy: InOrder}
	case 3:
		config = SuperscalarConfig{IssueWidth: width, Policy: OOOIssueInOrderRetire}
	case 4:
		config = SuperscalarConfig{IssueWidth: width, Policy: OOOIssueAndRetire}
	default:
		return config, fmt.Errorf("%w: %d", ErrUnknownSetting, setting)
	}

	if err := config.Validate(); err != nil {
		return config, err
	}

	return config, nil
}

// SettingDescription returns the human-readable name of a processor setting.
func SettingDescription(setting int) string {
	switch setting {
	case 1:
		return "Single instruction, in-order execution"
	case 2:
		return "Superscalar, in-order execution"
	case 3:
		return "Superscalar, out-of-order issue, in-order retirement"
	case 4:
		return "Superscalar, out-of-order issue and retirement"
	default:
		return "Unknown setting"
	}
}

// WithSuperscalar sets the superscalar configuration.
func WithSuperscalar(config SuperscalarConfig) PipelineOption {
	return func(p *Pipeline) {
		p.superscalarConfig = config
	}
}

// WithIssueWidth sets the number of issue slots per cycle.
func WithIssueWidth(width int) PipelineOption {
	return func(p *Pipeline) {
		p.superscalarConfig.IssueWidth = width
	}
}

// WithPolicy sets the scheduling policy.
func WithPolicy(policy Policy) PipelineOption {
	return func(p *Pipeline) {
		p.superscalarConfig.Policy = policy
	}
}
