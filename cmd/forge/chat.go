package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hyperengineering/forge/internal/i18n"
	"github.com/hyperengineering/forge/internal/registry"
	"github.com/hyperengineering/forge/internal/types"
	"github.com/spf13/cobra"
)

// defaultChatModule is used when chat is started without a module argument.
const defaultChatModule = "A.v.A"

var chatCmd = &cobra.Command{
	Use:   "chat [module]",
	Short: "Chat with a module interactively",
	Long:  "Start an interactive conversation. Commands: /reset clears history, /stats shows statistics, /quit exits.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	name := defaultChatModule
	if len(args) == 1 {
		name = args[0]
	}

	loc := i18n.New(ws.cfg.Locale.Language)
	info, err := ws.registry.Info(name)
	if err != nil {
		if errors.Is(err, registry.ErrModuleNotFound) {
			return errors.New(loc.T(i18n.MsgErrorModuleNotFound, map[string]any{"Module": name}))
		}
		return err
	}

	s := &chatSession{
		modules: ws.registry,
		module:  info,
		loc:     loc,
		out:     cmd.OutOrStdout(),
	}
	return s.run(cmd.Context(), cmd.InOrStdin())
}

// chatModules is the part of the registry a chat session drives.
type chatModules interface {
	Respond(ctx context.Context, nameOrID, input string, history []types.ConversationTurn) (string, error)
	Stats(ctx context.Context, nameOrID string) (*types.ModuleStats, error)
}

// chatSession is one REPL conversation. History lives only in memory.
type chatSession struct {
	modules chatModules
	module  types.ModuleInfo
	loc     *i18n.Localizer
	out     io.Writer
	history []types.ConversationTurn
}

func (s *chatSession) run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(s.out, s.loc.T(i18n.MsgChatWelcome, map[string]any{"Module": s.module.Name}))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(s.out, "%s: ", s.loc.T(i18n.MsgChatPrompt, nil))
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "/"):
			quit, err := s.command(ctx, line)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
		default:
			s.turn(ctx, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, s.loc.T(i18n.MsgChatGoodbye, nil))
	return nil
}

// turn sends one message. A failed turn prints the localized error and
// leaves the history unchanged.
func (s *chatSession) turn(ctx context.Context, input string) {
	resp, err := s.modules.Respond(ctx, s.module.ID, input, s.history)
	fmt.Fprintf(s.out, "%s: %s\n", s.module.Name, resp)
	if err != nil {
		return
	}
	s.history = append(s.history,
		types.ConversationTurn{Role: types.RoleUser, Content: input},
		types.ConversationTurn{Role: types.RoleAssistant, Content: resp},
	)
}

// command handles a slash command and reports whether the session ends.
func (s *chatSession) command(ctx context.Context, line string) (bool, error) {
	switch strings.ToLower(strings.Fields(line)[0]) {
	case "/quit", "/exit":
		fmt.Fprintln(s.out, s.loc.T(i18n.MsgChatGoodbye, nil))
		return true, nil
	case "/reset":
		s.history = nil
		fmt.Fprintln(s.out, s.loc.T(i18n.MsgChatHistoryCleared, nil))
	case "/stats":
		stats, err := s.modules.Stats(ctx, s.module.ID)
		if err != nil {
			return false, fmt.Errorf("module stats: %w", err)
		}
		s.printStats(stats)
	default:
		fmt.Fprintln(s.out, s.loc.T(i18n.MsgChatUnknownCommand, map[string]any{"Command": line}))
	}
	return false, nil
}

func (s *chatSession) printStats(stats *types.ModuleStats) {
	w := newTabWriter(s.out)
	fmt.Fprintf(w, "%s:\t%d\n", s.loc.T(i18n.MsgStatsLearnedResponses, nil), stats.LearnedResponses)
	fmt.Fprintf(w, "%s:\t%d\n", s.loc.T(i18n.MsgStatsTotalConversations, nil), stats.TotalConversations)
	fmt.Fprintf(w, "%s:\t%.2f\n", s.loc.T(i18n.MsgStatsAvgConfidence, nil), stats.AvgConfidence)
	fmt.Fprintf(w, "%s:\t%d\n", s.loc.T(i18n.MsgStatsActivePatterns, nil), stats.ActivePatterns)
	w.Flush()
}
