package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"trivia-quiz/internal/app"
	"trivia-quiz/internal/domain"
	"trivia-quiz/internal/theme"
)

// NewPlayCmd runs a quiz in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	settings := app.DefaultSettings()
	var difficulty string

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *configPath)
			if err != nil {
				return err
			}
			deps, err := buildComponents(cmd.Context(), cfg, slog.Default())
			if err != nil {
				return err
			}
			defer deps.Close()
			if deps.backend == "memory" {
				slog.Warn("play: " + errNoStore.Error())
			}

			settings.Difficulty = domain.Difficulty(difficulty)
			p := &player{
				service: deps.service,
				theme:   deps.theme,
				in:      bufio.NewScanner(cmd.InOrStdin()),
				out:     cmd.OutOrStdout(),
			}
			return p.play(cmd.Context(), settings)
		},
	}

	cmd.Flags().IntVarP(&settings.NumQuestions, "questions", "n", settings.NumQuestions,
		fmt.Sprintf("number of questions (%d-%d)", app.MinQuestions, app.MaxQuestions))
	cmd.Flags().StringVarP(&difficulty, "difficulty", "d", string(settings.Difficulty), "easy, medium or hard")
	cmd.Flags().StringVarP(&settings.Category, "category", "c", "", "category id; asked interactively when empty")
	return cmd
}

// player drives one terminal quiz from settings to the score prompt.
type player struct {
	service *app.QuizService
	theme   theme.Theme
	in      *bufio.Scanner
	out     io.Writer
}

var errInputClosed = errors.New("input closed")

func (p *player) play(ctx context.Context, settings app.Settings) error {
	if settings.Category == "" {
		category, err := p.chooseCategory(ctx)
		if err != nil {
			return err
		}
		settings.Category = category
	}

	session, err := p.service.Start(ctx, settings, app.NotifierFunc(p.feedback))
	if errors.Is(err, domain.ErrNoQuestions) {
		p.printf("No questions found for this category and difficulty. Try different settings.\n")
		return nil
	}
	if err != nil {
		return err
	}

	for session.State() == app.StateActive {
		if err := p.ask(ctx, session); err != nil {
			p.service.Cancel(ctx, session.ID())
			if errors.Is(err, errInputClosed) {
				return nil
			}
			return err
		}
	}

	result, err := session.Result()
	if err != nil {
		return err
	}
	p.printf("\nQuiz completed! Score: %.2f  Time: %ds  (%d/%d correct)\n",
		result.Score, result.ElapsedSeconds, result.CorrectCount, result.Total)

	if err := p.saveScore(ctx, session.ID()); err != nil {
		return err
	}
	return p.printScores(ctx)
}

func (p *player) chooseCategory(ctx context.Context) (string, error) {
	categories, err := p.service.Categories(ctx)
	if err != nil {
		return "", fmt.Errorf("list categories: %w", err)
	}
	for _, c := range categories {
		p.printf("%4s  %s\n", c.ID, c.Name)
	}
	for {
		line, err := p.prompt("Category id: ")
		if err != nil {
			return "", err
		}
		for _, c := range categories {
			if c.ID == line {
				return line, nil
			}
		}
		p.printf("Unknown category %q\n", line)
	}
}

func (p *player) ask(ctx context.Context, session *app.Session) error {
	view := session.View()
	p.printf("\nQuestion %d/%d\n%s\n", view.Index+1, view.Total, view.Question.Prompt)
	for i, o := range view.Question.Options {
		p.printf("  %d) %s\n", i+1, o)
	}

	for {
		line, err := p.prompt("Answer: ")
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(view.Question.Options) {
			p.printf("Pick a number between 1 and %d\n", len(view.Question.Options))
			continue
		}
		if err := p.service.SelectAnswer(ctx, session.ID(), view.Question.Options[n-1]); err != nil {
			return err
		}
		_, err = p.service.Advance(ctx, session.ID())
		return err
	}
}

// saveScore asks for a name until one is accepted. Closing input skips saving.
func (p *player) saveScore(ctx context.Context, sessionID string) error {
	for {
		name, err := p.prompt("Enter your name (Ctrl-D to skip): ")
		if errors.Is(err, errInputClosed) {
			p.service.Cancel(ctx, sessionID)
			p.printf("\nScore discarded.\n")
			return nil
		}
		if err != nil {
			return err
		}

		record, err := p.service.Submit(ctx, sessionID, name)
		switch {
		case errors.Is(err, domain.ErrValidation):
			p.printf("%s\n", err)
		case err != nil:
			return err
		default:
			p.printf("Saved %s: %.2f in %ds\n", record.Name, record.Score, record.ElapsedSeconds)
			return nil
		}
	}
}

func (p *player) printScores(ctx context.Context) error {
	records, err := p.service.HighScores(ctx)
	if err != nil {
		return err
	}
	p.printf("\nHigh Scores\n")
	return writeScores(p.out, records)
}

func (p *player) feedback(fb domain.Feedback) {
	p.printf("%s%s %s%s\n", p.theme.Palette.ANSI(), fb.Title, fb.Message, theme.Reset)
}

func (p *player) prompt(label string) (string, error) {
	p.printf("%s", label)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", errInputClosed
	}
	return strings.TrimSpace(p.in.Text()), nil
}

func (p *player) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}
