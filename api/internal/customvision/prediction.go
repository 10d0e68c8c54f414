package customvision

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"azure-playground/api/internal/azrest"
)

const predictionBase = "customvision/v3.0/Prediction/"

// Predictor talks to the prediction resource (Prediction-Key auth).
type Predictor struct {
	rest *azrest.Client
}

func NewPredictor(endpoint, key string, log *logrus.Entry, opts ...azrest.Option) *Predictor {
	opts = append([]azrest.Option{azrest.WithKeyHeader("Prediction-Key"), azrest.WithLogger(log)}, opts...)
	return &Predictor{rest: azrest.New(endpoint, key, opts...)}
}

type BoundingBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Prediction struct {
	Probability float64      `json:"probability"`
	TagID       string       `json:"tagId"`
	TagName     string       `json:"tagName"`
	BoundingBox *BoundingBox `json:"boundingBox,omitempty"`
}

type ImagePrediction struct {
	ID          string       `json:"id"`
	Project     string       `json:"project"`
	Iteration   string       `json:"iteration"`
	Predictions []Prediction `json:"predictions"`
}

func (p *Predictor) ClassifyImage(ctx context.Context, projectID, publishedName string, image []byte) (*ImagePrediction, error) {
	return p.predict(ctx, "classify", projectID, publishedName, image)
}

func (p *Predictor) DetectImage(ctx context.Context, projectID, publishedName string, image []byte) (*ImagePrediction, error) {
	return p.predict(ctx, "detect", projectID, publishedName, image)
}

func (p *Predictor) predict(ctx context.Context, kind, projectID, publishedName string, image []byte) (*ImagePrediction, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("image is empty")
	}
	path := predictionBase + url.PathEscape(projectID) + "/" + kind + "/iterations/" + url.PathEscape(publishedName) + "/image"
	var out ImagePrediction
	_, err := p.rest.Do(ctx, azrest.Request{
		Method:      http.MethodPost,
		Path:        path,
		Body:        image,
		ContentType: "application/octet-stream",
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("%s image: %w", kind, err)
	}
	return &out, nil
}
