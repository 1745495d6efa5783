package files

import (
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/chzyer/readline"
	"github.com/flynn-archive/go-shlex"
	common "github.com/nspcc-dev/oxfs/cmd/oxfs-lens/internal"
	"github.com/nspcc-dev/oxfs/pkg/romfs/filesystem"
	"github.com/spf13/cobra"
)

var shellCMD = &cobra.Command{
	Use:   "shell",
	Short: "Interactive image browser",
	Long: `Browse the image interactively. Supported commands:
  ls [<path>], cd [<path>], pwd, stat <path>, cat <path>, tree [<path>], help, exit.`,
	Args: cobra.NoArgs,
	RunE: shellFunc,
}

func init() {
	common.AddImageFlags(shellCMD)
}

func shellFunc(cmd *cobra.Command, _ []string) error {
	fsys, err := common.OpenImage(cmd)
	if err != nil {
		return err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt: "oxfs:/> ",
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("could not start shell: %w", err)
	}
	defer rl.Close()

	sh := newShell(fsys, rl.Stdout())

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		exit, err := sh.exec(line)
		if err != nil {
			_, _ = fmt.Fprintln(rl.Stderr(), "Error:", err)
		}
		if exit {
			return nil
		}

		rl.SetPrompt("oxfs:" + sh.cwd + "> ")
	}
}

type shell struct {
	fsys *filesystem.FileSystem
	out  io.Writer
	cwd  string
}

func newShell(fsys *filesystem.FileSystem, out io.Writer) *shell {
	return &shell{
		fsys: fsys,
		out:  out,
		cwd:  "/",
	}
}

func (s *shell) abs(p string) string {
	if path.IsAbs(p) {
		return path.Clean(p)
	}
	return path.Join(s.cwd, p)
}

// exec runs a single command line. It returns true when the shell must stop.
func (s *shell) exec(line string) (bool, error) {
	args, err := shlex.Split(line)
	if err != nil {
		return false, fmt.Errorf("could not parse command: %w", err)
	}

	if len(args) == 0 {
		return false, nil
	}

	name, args := args[0], args[1:]

	arg := func() (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("%s: expected exactly one path", name)
		}
		return s.abs(args[0]), nil
	}

	optArg := func() (string, error) {
		switch len(args) {
		case 0:
			return s.cwd, nil
		case 1:
			return s.abs(args[0]), nil
		default:
			return "", fmt.Errorf("%s: too many arguments", name)
		}
	}

	switch name {
	case "exit", "quit":
		return true, nil
	case "help":
		_, err = fmt.Fprintln(s.out, "commands: ls [<path>], cd [<path>], pwd, stat <path>, cat <path>, tree [<path>], help, exit")
	case "pwd":
		_, err = fmt.Fprintln(s.out, s.cwd)
	case "ls":
		var p string
		if p, err = optArg(); err == nil {
			err = printList(s.out, s.fsys, p)
		}
	case "tree":
		var p string
		if p, err = optArg(); err == nil {
			err = printTree(s.out, s.fsys, p)
		}
	case "cd":
		p := "/"
		if len(args) > 0 {
			if p, err = arg(); err != nil {
				return false, err
			}
		}
		err = s.cd(p)
	case "stat":
		var p string
		if p, err = arg(); err == nil {
			err = s.stat(p)
		}
	case "cat":
		var p string
		if p, err = arg(); err == nil {
			err = s.cat(p)
		}
	default:
		err = fmt.Errorf("unknown command %q, try help", name)
	}

	return false, err
}

func (s *shell) cd(p string) error {
	st, err := s.fsys.Stat(p)
	if err != nil {
		return err
	}

	if !st.IsDir() {
		return fmt.Errorf("%s is not a directory", p)
	}

	s.cwd = p

	return nil
}

func (s *shell) stat(p string) error {
	st, err := s.fsys.Stat(p)
	if err != nil {
		return err
	}

	return printStat(s.out, p, st, false)
}

func (s *shell) cat(p string) error {
	data, err := s.fsys.Read(p)
	if err != nil {
		return err
	}

	_, err = s.out.Write(data)
	return err
}
