package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/shreyakodukula/parking/internal/domain"
)

var ErrPlateNotDetected = errors.New("no licence plate detected in image")

var plateRegex = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)

type textDetector interface {
	DetectText(ctx context.Context, params *rekognition.DetectTextInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectTextOutput, error)
}

type LPRService struct {
	rekognitionClient textDetector
}

func NewLPRService(rekClient textDetector) *LPRService {
	return &LPRService{rekognitionClient: rekClient}
}

// DetectPlate runs Rekognition DetectText over the image and returns the most
// confident line that looks like a plate.
func (s *LPRService) DetectPlate(ctx context.Context, imageBytes []byte) (*domain.PlateDetection, error) {
	if s.rekognitionClient == nil {
		return nil, errors.New("rekognition client not configured")
	}

	result, err := s.rekognitionClient.DetectText(ctx, &rekognition.DetectTextInput{
		Image: &types.Image{Bytes: imageBytes},
	})
	if err != nil {
		return nil, fmt.Errorf("rekognition detect text: %w", err)
	}

	var best domain.PlateDetection
	var seen []string
	for _, td := range result.TextDetections {
		if td.Type != types.TextTypesLine || td.DetectedText == nil || td.Confidence == nil {
			continue
		}
		candidate := domain.NormalizePlate(*td.DetectedText)
		seen = append(seen, candidate)
		if !looksLikePlate(candidate) {
			continue
		}
		if *td.Confidence > best.Confidence {
			best = domain.PlateDetection{Plate: candidate, Confidence: *td.Confidence}
		}
	}

	if best.Plate == "" {
		slog.Info("no plate candidate found", "texts", strings.Join(seen, ","))
		return nil, ErrPlateNotDetected
	}
	return &best, nil
}

// looksLikePlate accepts 2-10 alphanumerics mixing letters and digits.
func looksLikePlate(s string) bool {
	if !plateRegex.MatchString(s) {
		return false
	}
	return strings.ContainsAny(s, "0123456789") && strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
}
