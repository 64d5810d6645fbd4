package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/shiksha-ai/shiksha-go/internal/attendance"
	"github.com/shiksha-ai/shiksha-go/internal/grader"
	"github.com/shiksha-ai/shiksha-go/internal/ingestion"
	"github.com/shiksha-ai/shiksha-go/internal/leaderboard"
	"github.com/shiksha-ai/shiksha-go/internal/logging"
	"github.com/shiksha-ai/shiksha-go/internal/ocr"
	"github.com/shiksha-ai/shiksha-go/internal/paper"
	"github.com/shiksha-ai/shiksha-go/internal/provider"
	"github.com/shiksha-ai/shiksha-go/internal/server"
	"github.com/shiksha-ai/shiksha-go/internal/tracing"
	"github.com/shiksha-ai/shiksha-go/internal/tutor"
)

// chatTopK is the number of chunks retrieved per chat question.
const chatTopK = 10

// NewServeCmd constructs the `shiksha serve` command, which starts the HTTP
// server exposing the full API.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the shiksha HTTP server",
		Long: `Start the shiksha HTTP server on localhost.

The server exposes the REST API for textbook ingestion, textbook chat,
question-paper generation, answer-sheet correction, OCR, attendance, and
the student leaderboard.

Vendor-specific features degrade gracefully: if Google Vision credentials
are missing the OCR and correction routes are not registered; if AWS
Rekognition is unreachable the attendance route is not registered. The
rest of the API keeps working.

Examples:
  shiksha serve
  shiksha serve --port 9090
  MODEL_PROVIDER=openai shiksha serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			// Setup Langfuse tracing — opt-in, no-op if keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
			}

			generator, err := provider.NewFromEnv(ctx)
			if err != nil {
				return fmt.Errorf("serve: failed to initialise model provider: %w", err)
			}
			log.Info("provider initialised")

			ret, closeRetrieval, err := buildRetrieval(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer closeRetrieval()

			docs, err := buildDocstore(log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer func() { _ = docs.Close() }()

			pipeline, err := ingestion.NewPipeline(ret.Embedder, ret.Store, nil)
			if err != nil {
				return fmt.Errorf("serve: failed to create ingestion pipeline: %w", err)
			}

			papers := paper.NewService(ret.Retriever, ret.Assembler, generator, docs)

			svc := &server.Services{
				Ingestor:    pipeline,
				Collections: ret.Store,
				Tutor:       tutor.New(ret.Retriever, ret.Assembler, generator, chatTopK),
				Papers:      papers,
				Leaderboard: leaderboard.NewService(docs),
			}

			// OCR and answer-sheet correction need Google Vision. Missing
			// credentials leave those routes unregistered.
			engine, err := ocr.NewVisionEngine(ctx, os.Getenv("VISION_CREDENTIALS_FILE"))
			if err != nil {
				log.Warn("vision OCR unavailable — /api/ocr and /api/corrections disabled",
					slog.Any("error", err))
			} else {
				defer func() { _ = engine.Close() }()
				svc.OCR = engine
				svc.Grader = grader.NewService(engine, ret.Retriever, generator, papers, docs)
			}

			// Attendance needs AWS Rekognition.
			comparer, err := attendance.NewRekognitionComparer(ctx, os.Getenv("AWS_REGION"))
			if err != nil {
				log.Warn("rekognition unavailable — /api/attendance disabled",
					slog.Any("error", err))
			} else {
				svc.Attendance = attendance.NewService(comparer, 0)
			}

			srv, err := server.New(svc, &server.Config{
				Host:   host,
				Port:   port,
				Logger: log,
				Pingers: []server.Pinger{
					server.NewQdrantPinger(ret.Store.Client()),
					server.NewDocstorePinger(docs),
				},
				APIKey: os.Getenv("SHIKSHA_API_KEY"),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", getEnvOrDefault("SERVER_HOST", "127.0.0.1"), "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", getEnvInt("SERVER_PORT", 8080), "TCP port to listen on")

	return cmd
}
