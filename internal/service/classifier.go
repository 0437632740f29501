package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"
	"github.com/zeebo/xxh3"
)

const classifierTimeout = 3 * time.Second

// verdicts are stable for a given document, keep them a day
const verdictTTLSeconds = 86400

// ClassifierService asks the external document classifier whether an
// uploaded supporting document looks like a medical document. Verdicts
// are cached in memcached keyed by a hash of the document ref.
type ClassifierService struct {
	client   *http.Client
	endpoint string
	mc       *memcache.Client
}

func NewClassifierService(endpoint string, mc *memcache.Client) *ClassifierService {
	return &ClassifierService{
		client:   &http.Client{Timeout: classifierTimeout},
		endpoint: endpoint,
		mc:       mc,
	}
}

type classifyRequest struct {
	Ref string `json:"ref"`
}

type classifyResponse struct {
	Medical bool   `json:"medical"`
	Label   string `json:"label"`
}

func (s *ClassifierService) Classify(ctx context.Context, ref string) (bool, error) {
	ctx, span := tracer.Start(ctx, "Classifier.Service.Classify")
	defer span.End()

	key := fmt.Sprintf("classify:%x", xxh3.HashString(ref))

	if item, err := s.mc.Get(key); err == nil {
		return string(item.Value) == "1", nil
	}

	body, err := json.Marshal(classifyRequest{Ref: ref})
	if err != nil {
		span.RecordError(err)
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/classify", bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		span.RecordError(err)
		return false, errors.Wrap(err, "ClassifierService.Classify: request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("classifier returned status %d", resp.StatusCode)
		span.RecordError(err)
		return false, err
	}

	var verdict classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		span.RecordError(err)
		return false, errors.Wrap(err, "ClassifierService.Classify: decode failed")
	}

	cached := []byte("0")
	if verdict.Medical {
		cached = []byte("1")
	}
	// cache failure only costs a repeat classification
	_ = s.mc.Set(&memcache.Item{Key: key, Value: cached, Expiration: verdictTTLSeconds})

	return verdict.Medical, nil
}
