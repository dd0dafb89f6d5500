package dispatch

import (
	"context"
	"strings"

	"github.com/cnc-n3r4/Isaac-sub001/internal/config"
	"github.com/cnc-n3r4/Isaac-sub001/internal/platform"
	"github.com/cnc-n3r4/Isaac-sub001/internal/tier"
)

// deviceStrategy resolves "@name command" (or an explicit device flag)
// against the configured device registry and re-routes the remainder under
// the device's platform. The loopback transport runs the local adapter, so
// a powershell device on a bash host still classifies and translates as
// powershell.
type deviceStrategy struct {
	cfg     *config.Config
	reenter reentry
}

func newDeviceStrategy(cfg *config.Config, reenter reentry) *deviceStrategy {
	return &deviceStrategy{cfg: cfg, reenter: reenter}
}

func (s *deviceStrategy) Name() string { return "device_routing" }

func (s *deviceStrategy) Matches(c *Context) bool {
	if c.DeviceTarget != "" {
		return true
	}
	return strings.HasPrefix(strings.TrimSpace(c.RawInput), "@")
}

func (s *deviceStrategy) Execute(ctx context.Context, c *Context) *CommandResult {
	name := c.DeviceTarget
	command := strings.TrimSpace(c.RawInput)
	if name == "" {
		name = strings.TrimPrefix(c.firstToken(), "@")
		command = c.rest()
	}
	if name == "" {
		return rejected(s.Name(), tier.None, "missing device name")
	}
	if command == "" {
		return rejected(s.Name(), tier.None, "missing command for device %q", name)
	}
	if s.cfg == nil {
		return rejected(s.Name(), tier.None, "unknown device %q: no devices configured", name)
	}
	dev, ok := s.cfg.Device(name)
	if !ok {
		return rejected(s.Name(), tier.None, "unknown device %q", name)
	}
	p, err := platform.Parse(dev.Platform)
	if err != nil || !p.Valid() {
		return rejected(s.Name(), tier.None, "device %q has no concrete platform (%q)", name, dev.Platform)
	}

	res := s.reenter(ctx, c.childFor(command, p))
	folded := *res
	folded.StrategyUsed = s.Name()
	return &folded
}
