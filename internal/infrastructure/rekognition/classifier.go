package rekognition

import (
	"context"
	"fmt"

	"seefood/internal/core/detection"
	"seefood/internal/infrastructure/config"
	"seefood/internal/pkg/common"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"go.uber.org/zap"
)

// DetectLabelsAPI Rekognition 用戶端中分類器需要的部分
type DetectLabelsAPI interface {
	DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// Classifier 以 AWS Rekognition DetectLabels 分類畫面影像
type Classifier struct {
	client        DetectLabelsAPI
	maxLabels     int32
	minConfidence float32
}

// New 依設定載入 AWS 憑證並建立分類器
func New(ctx context.Context, cfg config.RekognitionConfig) (*Classifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}
	common.LogInfo("Rekognition 分類器已啟用",
		zap.String("region", cfg.Region),
		zap.Int("max_labels", cfg.MaxLabels),
	)
	return NewWithClient(rekognition.NewFromConfig(awsCfg), cfg), nil
}

// NewWithClient 使用既有的用戶端建立分類器
func NewWithClient(client DetectLabelsAPI, cfg config.RekognitionConfig) *Classifier {
	maxLabels := cfg.MaxLabels
	if maxLabels <= 0 {
		maxLabels = 20
	}
	return &Classifier{
		client:        client,
		maxLabels:     int32(maxLabels),
		minConfidence: float32(cfg.MinConfidence),
	}
}

// Classify 實作 detection.Classifier；信心度由百分比轉為 [0,1]
func (c *Classifier) Classify(ctx context.Context, frame *detection.Frame) ([]detection.ClassificationResult, error) {
	if frame == nil || len(frame.Image) == 0 {
		return nil, nil
	}

	out, err := c.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: frame.Image},
		MaxLabels:     aws.Int32(c.maxLabels),
		MinConfidence: aws.Float32(c.minConfidence),
	})
	if err != nil {
		return nil, fmt.Errorf("detect labels: %w", err)
	}

	results := make([]detection.ClassificationResult, 0, len(out.Labels))
	for _, l := range out.Labels {
		name := aws.ToString(l.Name)
		if name == "" {
			continue
		}
		results = append(results, detection.ClassificationResult{
			Label:      name,
			Confidence: float64(aws.ToFloat32(l.Confidence)) / 100,
		})
	}
	return results, nil
}
