package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/pyneda/proxytag/lib"
	"github.com/pyneda/proxytag/pkg/mitm"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrNoActiveTab    = errors.New("no active tab to scope the command to")
)

// Handler runs a command with its arguments and returns the text to print.
type Handler func(args []string) (string, error)

type command struct {
	usage       string
	description string
	handler     Handler
}

// Shell turns text commands into registry operations.
type Shell struct {
	registry *mitm.Registry
	resolver *mitm.Resolver
	signals  *mitm.Signals
	context  mitm.CommandContext
	commands map[string]command
	aliases  map[string]string
}

func NewShell(registry *mitm.Registry, resolver *mitm.Resolver, signals *mitm.Signals, ctx mitm.CommandContext) *Shell {
	s := &Shell{
		registry: registry,
		resolver: resolver,
		signals:  signals,
		context:  ctx,
		commands: make(map[string]command),
		aliases:  make(map[string]string),
	}
	s.Handle("record", "record [on|off] [tab|global]", "record traffic with the MITM proxy", s.toggle(signals.Record))
	s.Handle("break", "break [on|off] [tab|global]", "break on requests and responses in the MITM proxy", s.toggle(signals.Intercept))
	s.aliases["intercept"] = "break"
	s.Handle("list", "list [text|pretty|table|json|yaml]", "list modifier registrations", s.list)
	s.Handle("help", "help", "show this help", s.help)
	return s
}

// Handle registers or replaces a command.
func (s *Shell) Handle(name, usage, description string, handler Handler) {
	s.commands[name] = command{usage: usage, description: description, handler: handler}
}

// Exec runs a single command line. Blank lines and comments return "".
func (s *Shell) Exec(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return "", nil
	}
	name := strings.ToLower(fields[0])
	if alias, ok := s.aliases[name]; ok {
		name = alias
	}
	cmd, ok := s.commands[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownCommand, fields[0])
	}
	return cmd.handler(fields[1:])
}

// Run reads commands from in until EOF or ctx is done, writing results to out.
func (s *Shell) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	okColor := color.New(color.FgGreen)
	errColor := color.New(color.FgRed)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, open := <-lines:
			if !open {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			result, err := s.Exec(line)
			if err != nil {
				log.Debug().Err(err).Str("line", line).Msg("Command failed")
				errColor.Fprintln(out, err.Error())
				continue
			}
			switch {
			case result == "":
			case result == "ok":
				okColor.Fprintln(out, result)
			default:
				fmt.Fprintln(out, result)
			}
		}
	}
}

// toggle adds or removes m. Arguments can come in any order; the defaults are
// "on" and "tab".
func (s *Shell) toggle(m *mitm.Modifier) Handler {
	return func(args []string) (string, error) {
		on := true
		tabScope := true
		for _, arg := range args {
			switch strings.ToLower(arg) {
			case "on":
				on = true
			case "off":
				on = false
			case "tab":
				tabScope = true
			case "global":
				tabScope = false
			default:
				return "", fmt.Errorf("invalid argument %q, expected on, off, tab or global", arg)
			}
		}

		key := mitm.Global
		if tabScope {
			key = s.resolver.KeyFromContext(s.context)
			if key == mitm.Global {
				return "", ErrNoActiveTab
			}
		}
		if on {
			s.registry.Add(m, key)
		} else {
			s.registry.Remove(m, key)
		}
		log.Info().Str("modifier", m.Name).Stringer("scope", key).Bool("enabled", on).Msg("Modifier toggled")
		return "ok", nil
	}
}

func (s *Shell) list(args []string) (string, error) {
	format := lib.Table
	if len(args) > 0 {
		parsed, err := lib.ParseFormatType(args[0])
		if err != nil {
			return "", err
		}
		format = parsed
	}
	registrations := s.registry.Registrations()
	if len(registrations) == 0 && format != lib.JSON && format != lib.YAML {
		return "no modifiers registered", nil
	}
	return lib.FormatOutput(registrations, format)
}

func (s *Shell) help(args []string) (string, error) {
	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		cmd := s.commands[name]
		fmt.Fprintf(&b, "%-36s %s\n", cmd.usage, cmd.description)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
