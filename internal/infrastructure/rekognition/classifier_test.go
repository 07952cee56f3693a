package rekognition

import (
	"context"
	"errors"
	"math"
	"testing"

	"seefood/internal/core/detection"
	"seefood/internal/infrastructure/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

type fakeRekognition struct {
	input *rekognition.DetectLabelsInput
	out   *rekognition.DetectLabelsOutput
	err   error
}

func (f *fakeRekognition) DetectLabels(_ context.Context, params *rekognition.DetectLabelsInput, _ ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error) {
	f.input = params
	return f.out, f.err
}

func TestClassifierConvertsConfidence(t *testing.T) {
	fake := &fakeRekognition{out: &rekognition.DetectLabelsOutput{
		Labels: []types.Label{
			{Name: aws.String("Apple"), Confidence: aws.Float32(87.5)},
			{Name: aws.String("Plate"), Confidence: aws.Float32(99)},
			{Name: nil, Confidence: aws.Float32(50)},
		},
	}}
	c := NewWithClient(fake, config.RekognitionConfig{MaxLabels: 10, MinConfidence: 40})

	got, err := c.Classify(context.Background(), &detection.Frame{Image: []byte{1, 2, 3}})
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 labels, got %v", got)
	}
	if got[0].Label != "Apple" || math.Abs(got[0].Confidence-0.875) > 1e-6 {
		t.Fatalf("unexpected first label: %+v", got[0])
	}
	if aws.ToInt32(fake.input.MaxLabels) != 10 || aws.ToFloat32(fake.input.MinConfidence) != 40 {
		t.Fatalf("unexpected request: max=%d min=%v", aws.ToInt32(fake.input.MaxLabels), aws.ToFloat32(fake.input.MinConfidence))
	}
}

func TestClassifierSkipsFramesWithoutImage(t *testing.T) {
	fake := &fakeRekognition{err: errors.New("should not be called")}
	c := NewWithClient(fake, config.RekognitionConfig{})

	got, err := c.Classify(context.Background(), detection.NewFrame(nil))
	if err != nil || got != nil {
		t.Fatalf("Classify() = (%v, %v), want (nil, nil)", got, err)
	}
	if fake.input != nil {
		t.Fatal("DetectLabels should not be called without an image")
	}
}

func TestClassifierWrapsErrors(t *testing.T) {
	sentinel := errors.New("throttled")
	c := NewWithClient(&fakeRekognition{err: sentinel}, config.RekognitionConfig{})

	_, err := c.Classify(context.Background(), &detection.Frame{Image: []byte{1}})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
