package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"studynook-backend/internal/config"
	"studynook-backend/internal/llm"
	"studynook-backend/internal/logger"
	"studynook-backend/internal/services"
)

const rootLongDesc string = `studyctl runs StudyNook study tasks from the command line.

Each task reads its material from --file (pdf, docx, txt or md) or from
stdin and prints the structured result as JSON.

Examples:
  studyctl explain "photosynthesis" --level eli5
  studyctl flashcards --file lecture.pdf --count 15
  studyctl citations < essay.txt
  studyctl notes scan.jpg
  studyctl migrate --database-url postgres://localhost/studynook`

const rootShortDesc string = "StudyNook study task runner"

// studyFactory builds the service the task commands run against. The
// returned func releases the model client.
type studyFactory func(ctx context.Context, log *slog.Logger) (*services.StudyService, func(), error)

func newStudyService(ctx context.Context, log *slog.Logger) (*services.StudyService, func(), error) {
	cfg := config.LoadAI()
	client, closeFn, err := llm.NewClient(ctx, cfg.Gemini(), llm.NewLogObserver(log))
	if err != nil {
		return nil, func() {}, err
	}
	svc := services.NewStudyService(client, log)
	if !svc.Configured() {
		log.Warn("GEMINI_API_KEY is not set; results will be placeholders")
	}
	return svc, closeFn, nil
}

func newRootCmd(factory studyFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "studyctl",
		Short:         rootShortDesc,
		Long:          rootLongDesc,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")

	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newExplainCmd(factory))
	cmd.AddCommand(newQuizCmd(factory))
	cmd.AddCommand(newFlashcardsCmd(factory))
	cmd.AddCommand(newCitationsCmd(factory))
	cmd.AddCommand(newResearchCmd(factory))
	cmd.AddCommand(newNotesCmd(factory))

	return cmd
}

func cmdLogger(cmd *cobra.Command) *slog.Logger {
	debug, _ := cmd.Flags().GetBool("debug")
	return logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(true),
		logger.WithWriter(cmd.ErrOrStderr()),
	)
}

// withStudy builds the service for one command invocation and hands it to
// run.
func withStudy(cmd *cobra.Command, factory studyFactory, run func(ctx context.Context, study *services.StudyService) (interface{}, error)) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	study, closeFn, err := factory(ctx, cmdLogger(cmd))
	if err != nil {
		return fmt.Errorf("creating model client: %w", err)
	}
	defer closeFn()

	result, err := run(ctx, study)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}

// readMaterial returns the extracted text of path, or all of stdin when
// path is empty.
func readMaterial(cmd *cobra.Command, path string) (string, error) {
	if path != "" {
		text, err := services.NewFileExtractService().ExtractTextFromPath(path)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", path, err)
		}
		return text, nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("no material given: pass --file or pipe text on stdin")
	}
	return text, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func databaseURLDefault() string {
	return os.Getenv("DATABASE_URL")
}
