// Package systemcall runs an external program between operations, passing
// it the current value of selected scalars.
package systemcall

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/mattn/go-shellwords"
	"github.com/specialistvlad/opgrid/internal/ctxlog"
	"github.com/specialistvlad/opgrid/internal/engineerr"
	"github.com/specialistvlad/opgrid/internal/layout"
	"github.com/specialistvlad/opgrid/internal/model"
	"github.com/specialistvlad/opgrid/internal/op"
	"github.com/specialistvlad/opgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the SystemCall factory.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFactory("SystemCall", New)
}

type appended struct {
	name   string
	option string
}

// SystemCall runs its command on rank 0. The other ranks wait for it and
// share its outcome.
type SystemCall struct {
	host    op.Host
	command []string
	dir     string
	inputs  []appended
}

// New builds a SystemCall operation from
//
//	operation "SystemCall" "<name>" {
//	  command           = "./solver --quiet"
//	  working_directory = "run"
//	  append_input "<scalar>" { option = "--load" }
//	}
func New(_ context.Context, host op.Host, node *model.Node) (op.LocalOp, error) {
	if err := node.Allow([]string{"command", "working_directory"}, []string{"append_input"}); err != nil {
		return nil, err
	}
	line, err := node.RequiredString("command")
	if err != nil {
		return nil, err
	}
	s := &SystemCall{host: host}
	if s.command, err = shellwords.Parse(line); err != nil {
		return nil, node.Errorf("command %q: %v", line, err)
	}
	if len(s.command) == 0 {
		return nil, node.Errorf("command is empty")
	}
	dir, err := node.StringOr("working_directory", ".")
	if err != nil {
		return nil, err
	}
	s.dir = node.FSInformation.Resolve(dir)

	for _, b := range node.Blocks("append_input") {
		if err := b.Allow([]string{"option"}, nil); err != nil {
			return nil, err
		}
		in := appended{name: b.Label(0)}
		if in.name == "" {
			return nil, b.Errorf("append_input block needs an argument label")
		}
		if in.option, err = b.StringOr("option", ""); err != nil {
			return nil, err
		}
		s.inputs = append(s.inputs, in)
	}
	return s, nil
}

// Arguments declares the appended scalars.
func (s *SystemCall) Arguments() []layout.Argument {
	args := make([]layout.Argument, len(s.inputs))
	for i, in := range s.inputs {
		args[i] = layout.NewArgument(layout.Scalar, in.name, 0)
	}
	return args
}

// Execute runs the command with the appended values and waits on every
// rank until it exits.
func (s *SystemCall) Execute(ctx context.Context) error {
	argv, err := s.argv()
	if err != nil {
		return err
	}
	logger := ctxlog.FromContext(ctx)

	_, err = op.OnRoot(s.host.Comm(), "command "+argv[0], func() ([]float64, error) {
		var out bytes.Buffer
		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		cmd.Dir = s.dir
		cmd.Stdout = &out
		cmd.Stderr = &out
		logger.Debug("Running command.", "argv", argv, "dir", s.dir)
		if err := cmd.Run(); err != nil {
			return nil, engineerr.IO(err, "running %q: %s", strings.Join(argv, " "), strings.TrimSpace(out.String()))
		}
		logger.Debug("Command finished.", "output", strings.TrimSpace(out.String()))
		return nil, nil
	})
	s.host.Comm().Barrier()
	return err
}

func (s *SystemCall) argv() ([]string, error) {
	argv := append([]string(nil), s.command...)
	for _, in := range s.inputs {
		values, err := s.host.Registry().Value(in.name)
		if err != nil {
			return nil, err
		}
		if in.option != "" {
			argv = append(argv, in.option)
		}
		for _, v := range values {
			argv = append(argv, strconv.FormatFloat(v, 'g', -1, 64))
		}
	}
	return argv, nil
}
