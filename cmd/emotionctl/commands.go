package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go-emotion-inspector/internal/analyzer"
	"go-emotion-inspector/internal/logger"
	"go-emotion-inspector/internal/ocr"
	"go-emotion-inspector/internal/storage"
	"go-emotion-inspector/pkg/models"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// defaultBlockSize matches the time-domain buffer a browser analyser node
// hands out per animation frame
const defaultBlockSize = 2048

func (c *cli) textCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "text [words...]",
		Short: "Score free text (reads stdin when no words are given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				text = strings.TrimSpace(string(data))
			}

			result := analyzer.ScoreText(text)
			return c.print(cmd, newTextReport(text, len(analyzer.Tokenize(text)), result))
		},
	}
}

func (c *cli) imageCmd() *cobra.Command {
	var (
		withOCR      bool
		expectedText string
		language     string
	)

	cmd := &cobra.Command{
		Use:   "image [file]",
		Short: "Score the colours of an image file (png, jpeg, gif, webp)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			img, format, err := storage.DecodeImage(f, 0)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			var extractor analyzer.OCRExtractor
			opts := c.options()
			if withOCR {
				extractor = ocr.NewTesseractExtractor(language, 1)
				opts = opts.WithOCR(expectedText)
				opts.OCRLanguage = language
			}

			emotionAnalyzer, err := analyzer.NewEmotionAnalyzer(1, extractor)
			if err != nil {
				return err
			}
			defer emotionAnalyzer.Close()

			result, err := emotionAnalyzer.AnalyzeImage(cmd.Context(), img, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			logger.WithFields(logrus.Fields{
				"file":    args[0],
				"format":  format,
				"samples": result.Samples,
			}).Debug("Image scored")

			return c.print(cmd, newImageReport(args[0], format, result))
		},
	}

	cmd.Flags().BoolVar(&withOCR, "ocr", false, "extract and score text found in the image")
	cmd.Flags().StringVar(&expectedText, "expected-text", "", "reference text for OCR error rates")
	cmd.Flags().StringVar(&language, "ocr-language", "eng", "tesseract language, e.g. eng or eng+deu")
	return cmd
}

func newImageReport(file, format string, result models.ImageAnalysis) *imageReport {
	report := &imageReport{
		File:     file,
		Format:   format,
		Width:    result.Width,
		Height:   result.Height,
		Samples:  result.Samples,
		Emotion:  result.Emotion,
		Color:    result.Emotion.Color(),
		Scores:   result.Scores,
		Features: result.Features,
	}

	if o := result.OCRResult; o != nil {
		report.OCR = &ocrReport{
			Text:       o.ExtractedText,
			Confidence: o.Confidence,
			Error:      o.OCRError,
		}
		if o.ExpectedText != "" && o.OCRError == "" {
			wer, cer := o.WER, o.CER
			report.OCR.WER, report.OCR.CER = &wer, &cer
		}
		if o.TextEmotion != nil {
			report.OCR.Emotion = newTextReport(o.ExtractedText, len(analyzer.Tokenize(o.ExtractedText)), *o.TextEmotion)
		}
	}
	return report
}

func (c *cli) speechCmd() *cobra.Command {
	var (
		transcript string
		energy     float64
		blockSize  int
	)

	cmd := &cobra.Command{
		Use:   "speech [pcm file]",
		Short: "Fuse a transcript with the energy of unsigned 8-bit PCM samples",
		Long: "Reads unsigned 8-bit mono PCM (the layout of a browser analyser's time-domain data) " +
			"in blocks, folds each block into the smoothed energy and fuses the resulting arousal " +
			"with the transcript's label. Use - to read samples from stdin.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if energy < 0 || energy > 1 {
				return fmt.Errorf("energy must be between 0 and 1 (got %v)", energy)
			}
			if blockSize <= 0 {
				return fmt.Errorf("block size must be > 0 (got %d)", blockSize)
			}

			var blocks [][]byte
			if len(args) == 1 {
				r := cmd.InOrStdin()
				if args[0] != "-" {
					f, err := os.Open(args[0])
					if err != nil {
						return err
					}
					defer f.Close()
					r = f
				}

				var err error
				if blocks, err = readBlocks(r, blockSize); err != nil {
					return err
				}
			}

			emotionAnalyzer, err := analyzer.NewEmotionAnalyzer(1, nil)
			if err != nil {
				return err
			}
			defer emotionAnalyzer.Close()

			result := emotionAnalyzer.AnalyzeSpeech(transcript, blocks, energy, c.options())
			return c.print(cmd, &speechReport{
				Transcript:  transcript,
				Blocks:      len(blocks),
				TextEmotion: result.Text.Emotion,
				Energy:      result.Energy,
				Arousal:     result.Arousal,
				Emotion:     result.Emotion,
				Color:       result.Color,
			})
		},
	}

	cmd.Flags().StringVarP(&transcript, "transcript", "t", "", "what was said")
	cmd.Flags().Float64Var(&energy, "energy", 0, "smoothed energy carried over from a previous run")
	cmd.Flags().IntVar(&blockSize, "block-size", defaultBlockSize, "samples per energy update")
	return cmd
}

// readBlocks splits r into blocks of size bytes; the last block may be short
func readBlocks(r io.Reader, size int) ([][]byte, error) {
	var blocks [][]byte
	for {
		block := make([]byte, size)
		n, err := io.ReadFull(r, block)
		if n > 0 {
			blocks = append(blocks, block[:n])
		}
		switch {
		case err == nil:
			continue
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return blocks, nil
		default:
			return nil, fmt.Errorf("reading samples: %w", err)
		}
	}
}

func (c *cli) fuseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fuse [emotion] [arousal]",
		Short: "Apply the arousal fusion rule to a label",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			label, err := models.ParseEmotion(args[0])
			if err != nil {
				return err
			}
			arousal, err := strconv.ParseFloat(args[1], 64)
			if err != nil || arousal < 0 || arousal > 1 {
				return fmt.Errorf("arousal must be a number between 0 and 1 (got %q)", args[1])
			}

			fused := c.options().FusionRule().Apply(label, arousal)
			return c.print(cmd, &fuseReport{
				Input:   label,
				Arousal: arousal,
				Emotion: fused,
				Color:   fused.Color(),
			})
		},
	}
}

func (c *cli) colorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "colors",
		Aliases: []string{"legend"},
		Short:   "Print every emotion label with its display colour",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.print(cmd, models.Legend())
		},
	}
}
