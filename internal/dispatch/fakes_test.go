package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/cnc-n3r4/Isaac-sub001/internal/advisor"
	"github.com/cnc-n3r4/Isaac-sub001/internal/platform"
	"github.com/cnc-n3r4/Isaac-sub001/internal/session"
	"github.com/cnc-n3r4/Isaac-sub001/internal/shell"
	"github.com/cnc-n3r4/Isaac-sub001/internal/tier"
)

// fakeGate scripts advisor behavior. The zero value corrects nothing and
// judges everything safe.
type fakeGate struct {
	verdict       *advisor.Verdict
	verdictErr    error
	correction    *advisor.Correction
	correctionErr error

	validateCalls int
	correctCalls  int
	lastValidated string
	panicOnUse    bool
}

func (g *fakeGate) Validate(_ context.Context, command string, _ platform.Platform, _ tier.Tier) (*advisor.Verdict, error) {
	if g.panicOnUse {
		panic("gate exploded")
	}
	g.validateCalls++
	g.lastValidated = command
	if g.verdictErr != nil {
		return nil, g.verdictErr
	}
	if g.verdict != nil {
		return g.verdict, nil
	}
	return &advisor.Verdict{Safe: true}, nil
}

func (g *fakeGate) Correct(_ context.Context, command string, _ platform.Platform) (*advisor.Correction, error) {
	g.correctCalls++
	if g.correctionErr != nil {
		return nil, g.correctionErr
	}
	if g.correction != nil {
		return g.correction, nil
	}
	return &advisor.Correction{Corrected: command, Confidence: 1}, nil
}

// spyAdapter records every request and replays scripted results. With no
// script it reports success with a fixed stdout.
type spyAdapter struct {
	p        platform.Platform
	requests []shell.ExecRequest
	script   []*shell.ExecResult
	errs     []error
}

func (a *spyAdapter) Run(_ context.Context, req shell.ExecRequest) (*shell.ExecResult, error) {
	a.requests = append(a.requests, req)
	res := &shell.ExecResult{Stdout: "ok\n", ExitCode: 0}
	if len(a.script) > 0 {
		res = a.script[0]
		a.script = a.script[1:]
	}
	var err error
	if len(a.errs) > 0 {
		err = a.errs[0]
		a.errs = a.errs[1:]
	}
	return res, err
}

func (a *spyAdapter) Platform() platform.Platform { return a.p }

func (a *spyAdapter) calls() int { return len(a.requests) }

func (a *spyAdapter) lastCommand() string {
	if len(a.requests) == 0 {
		return ""
	}
	return a.requests[len(a.requests)-1].Command
}

// scriptedConfirmer answers every prompt with a fixed verdict and keeps the
// prompts it saw.
type scriptedConfirmer struct {
	answer  bool
	err     error
	prompts []string
}

func (c *scriptedConfirmer) Confirm(_ context.Context, prompt string) (bool, error) {
	c.prompts = append(c.prompts, prompt)
	return c.answer, c.err
}

// ctxConfirmer approves unless the context is already done, the way an
// interactive prompt behaves when its session is torn down.
type ctxConfirmer struct{}

func (ctxConfirmer) Confirm(ctx context.Context, _ string) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
		return true, nil
	}
}

type fixture struct {
	router *Router
	gate   *fakeGate
	bash   *spyAdapter
	pwsh   *spyAdapter

	classifier *tier.Classifier
}

// newFixture builds a router over fakes. mod tweaks the options before the
// strategy chain is wired.
func newFixture(t *testing.T, mod ...func(*Options)) *fixture {
	t.Helper()

	table, err := tier.NewTable(tier.DefaultRules(), nil)
	if err != nil {
		t.Fatalf("building default table: %v", err)
	}

	f := &fixture{
		gate:       &fakeGate{},
		bash:       &spyAdapter{p: platform.Bash},
		pwsh:       &spyAdapter{p: platform.PowerShell},
		classifier: tier.NewClassifier(table),
	}
	opts := Options{
		Classifier: f.classifier,
		Gate:       f.gate,
		Adapters: map[platform.Platform]shell.Adapter{
			platform.Bash:       f.bash,
			platform.PowerShell: f.pwsh,
		},
		ShellTimeout: 5 * time.Second,
	}
	for _, m := range mod {
		m(&opts)
	}
	f.router = NewRouter(opts)
	return f
}

func (f *fixture) route(t *testing.T, input string) *CommandResult {
	t.Helper()
	res := f.router.Route(context.Background(), &Context{
		RawInput: input,
		Platform: platform.Bash,
	})
	if res == nil {
		t.Fatalf("route %q returned nil result", input)
	}
	return res
}

func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	return session.New(t.TempDir(), platform.Bash)
}
