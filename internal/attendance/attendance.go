// Package attendance marks students present or absent by matching their
// reference photos against a classroom group photo. Face comparison goes
// through the Comparer interface so the fan-out logic can be tested without
// AWS credentials.
package attendance

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"golang.org/x/sync/errgroup"

	"github.com/shiksha-ai/shiksha-go/internal/logging"
)

// defaultConcurrency bounds the number of concurrent face comparisons.
const defaultConcurrency = 4

// Attendance status values recorded per student.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

// Match is the outcome of comparing one reference face against the group photo.
type Match struct {
	// Present reports whether a matching face was found.
	Present bool
	// Similarity is the confidence of the best match, in percent.
	Similarity float64
}

// Comparer matches a reference face against a group photo.
// Implementations must be safe for concurrent use.
type Comparer interface {
	// Compare looks for the face in source within target.
	Compare(ctx context.Context, source, target []byte) (Match, error)
}

// RekognitionComparer is a Comparer backed by AWS Rekognition CompareFaces.
// Credentials are resolved via the standard SDK chain.
type RekognitionComparer struct {
	client *rekognition.Client
}

// NewRekognitionComparer constructs a RekognitionComparer. region may be
// empty, in which case the SDK's resolved region is used.
func NewRekognitionComparer(ctx context.Context, region string) (*RekognitionComparer, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("attendance: load aws config: %w", err)
	}
	return &RekognitionComparer{client: rekognition.NewFromConfig(cfg)}, nil
}

// Compare implements Comparer.
func (c *RekognitionComparer) Compare(ctx context.Context, source, target []byte) (Match, error) {
	out, err := c.client.CompareFaces(ctx, &rekognition.CompareFacesInput{
		SourceImage: &types.Image{Bytes: source},
		TargetImage: &types.Image{Bytes: target},
	})
	if err != nil {
		return Match{}, fmt.Errorf("attendance: compare faces: %w", err)
	}
	if len(out.FaceMatches) == 0 {
		return Match{}, nil
	}
	return Match{
		Present:    true,
		Similarity: float64(aws.ToFloat32(out.FaceMatches[0].Similarity)),
	}, nil
}

// Student is one roster entry to check against the group photo.
type Student struct {
	// ID identifies the student.
	ID string `json:"student_id"`
	// Photo is the student's reference image.
	Photo []byte `json:"-"`
}

// Record is the attendance outcome for one student.
type Record struct {
	StudentID string `json:"student_id"`
	// Status is "present" or "absent".
	Status string `json:"status"`
	// Similarity is the match confidence in percent, 0 when absent.
	Similarity float64 `json:"similarity"`
	// Error carries the comparison failure for this student, when any.
	// A failed comparison does not mark the student absent.
	Error string `json:"error,omitempty"`
}

// Service takes attendance from a group photo.
type Service struct {
	comparer    Comparer
	concurrency int
}

// NewService constructs an attendance Service. concurrency bounds parallel
// comparisons; zero selects the default.
func NewService(comparer Comparer, concurrency int) *Service {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Service{comparer: comparer, concurrency: concurrency}
}

// Take compares every roster student against the group photo. Comparisons
// run concurrently with a bounded worker count; a failure for one student is
// recorded on that student's entry and does not affect the others. Records
// are returned in roster order.
func (s *Service) Take(ctx context.Context, group []byte, roster []Student) []Record {
	log := logging.FromContext(ctx)

	records := make([]Record, len(roster))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, student := range roster {
		g.Go(func() error {
			match, err := s.comparer.Compare(ctx, student.Photo, group)
			if err != nil {
				log.Warn("face comparison failed",
					slog.String("student_id", student.ID),
					slog.String("error", err.Error()),
				)
				records[i] = Record{StudentID: student.ID, Error: err.Error()}
				return nil
			}
			status := StatusAbsent
			if match.Present {
				status = StatusPresent
			}
			records[i] = Record{
				StudentID:  student.ID,
				Status:     status,
				Similarity: match.Similarity,
			}
			return nil
		})
	}
	// Workers never return errors; Wait is the join point.
	_ = g.Wait()

	return records
}
