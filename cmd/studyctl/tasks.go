package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"studynook-backend/internal/llm"
	"studynook-backend/internal/models"
	"studynook-backend/internal/services"
)

func newExplainCmd(factory studyFactory) *cobra.Command {
	var level, details, file string

	cmd := &cobra.Command{
		Use:   "explain <concept>",
		Short: "Explain a concept at a chosen level",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			concept := strings.TrimSpace(strings.Join(args, " "))
			if concept == "" {
				return fmt.Errorf("concept must not be empty")
			}

			var materials []models.SourceMaterial
			if file != "" {
				text, err := readMaterial(cmd, file)
				if err != nil {
					return err
				}
				materials = append(materials, models.SourceMaterial{Title: file, Content: text})
			}

			return withStudy(cmd, factory, func(ctx context.Context, study *services.StudyService) (interface{}, error) {
				return study.Explain(ctx, concept, details, models.ParseExplanationLevel(level), materials), nil
			})
		},
	}

	cmd.Flags().StringVarP(&level, "level", "l", string(models.LevelStandard), "Explanation level: eli5, beginner, standard, graduate or professor")
	cmd.Flags().StringVar(&details, "details", "", "Extra context about what is unclear")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Study material to ground the explanation in")

	return cmd
}

func newQuizCmd(factory studyFactory) *cobra.Command {
	var file string
	var count int

	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Generate multiple-choice questions from material",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			text, err := readMaterial(cmd, file)
			if err != nil {
				return err
			}
			return withStudy(cmd, factory, func(ctx context.Context, study *services.StudyService) (interface{}, error) {
				return map[string]interface{}{"questions": study.GenerateQuiz(ctx, text, count)}, nil
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Material file (defaults to stdin)")
	cmd.Flags().IntVarP(&count, "count", "n", services.DefaultQuizQuestions, "Number of questions")

	return cmd
}

func newFlashcardsCmd(factory studyFactory) *cobra.Command {
	var file string
	var count int

	cmd := &cobra.Command{
		Use:   "flashcards",
		Short: "Generate flashcards from material",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			text, err := readMaterial(cmd, file)
			if err != nil {
				return err
			}
			return withStudy(cmd, factory, func(ctx context.Context, study *services.StudyService) (interface{}, error) {
				return map[string]interface{}{"flashcards": study.GenerateFlashcards(ctx, text, count)}, nil
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Material file (defaults to stdin)")
	cmd.Flags().IntVarP(&count, "count", "n", services.DefaultFlashcards, "Number of cards")

	return cmd
}

func newCitationsCmd(factory studyFactory) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "citations",
		Short: "Suggest sources that back up a piece of writing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			text, err := readMaterial(cmd, file)
			if err != nil {
				return err
			}
			return withStudy(cmd, factory, func(ctx context.Context, study *services.StudyService) (interface{}, error) {
				return map[string]interface{}{"sources": study.FindCitations(ctx, text)}, nil
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Writing to cite (defaults to stdin)")

	return cmd
}

func newResearchCmd(factory studyFactory) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "research",
		Short: "Summarize a research paper",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			text, err := readMaterial(cmd, file)
			if err != nil {
				return err
			}
			return withStudy(cmd, factory, func(ctx context.Context, study *services.StudyService) (interface{}, error) {
				return study.SummarizePaper(ctx, text), nil
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Paper file (defaults to stdin)")

	return cmd
}

func newNotesCmd(factory studyFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes <image>",
		Short: "Transcribe and tidy a photo of handwritten notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading image: %w", err)
			}
			mimeType := http.DetectContentType(data)
			if !strings.HasPrefix(mimeType, "image/") {
				return fmt.Errorf("%s is not an image (%s)", args[0], mimeType)
			}

			return withStudy(cmd, factory, func(ctx context.Context, study *services.StudyService) (interface{}, error) {
				cleaned := study.CleanHandwrittenNotes(ctx, llm.Image{MIMEType: mimeType, Data: data})
				return map[string]string{"cleanedText": cleaned}, nil
			})
		},
	}

	return cmd
}
