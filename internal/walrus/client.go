package walrus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/farellandr/namitix/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

var (
	ErrStoreWrite   = errors.New("walrus store failed")
	ErrStoreRead    = errors.New("walrus fetch failed")
	ErrBlobNotFound = errors.New("walrus blob not found")
	ErrBlobDecode   = errors.New("walrus blob is not valid ticket metadata")
)

const (
	DefaultPublisherURL  = "https://publisher.walrus-testnet.walrus.space"
	DefaultAggregatorURL = "https://aggregator.walrus-testnet.walrus.space"
	defaultEpochs        = 1
)

// Client stores blobs through a Walrus publisher and reads them back
// through an aggregator.
type Client struct {
	publisherURL  string
	aggregatorURL string
	epochs        int
	logger        *logrus.Logger
	hc            *http.Client
}

func NewClient(publisherURL, aggregatorURL string, epochs int, logger *logrus.Logger, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	if epochs <= 0 {
		epochs = defaultEpochs
	}
	return &Client{
		publisherURL:  strings.TrimRight(publisherURL, "/"),
		aggregatorURL: strings.TrimRight(aggregatorURL, "/"),
		epochs:        epochs,
		logger:        logger,
		hc:            hc,
	}
}

func (c *Client) BlobURL(blobID string) string {
	return fmt.Sprintf("%s/v1/blobs/%s", c.aggregatorURL, url.PathEscape(blobID))
}

func (c *Client) PutMetadata(ctx context.Context, metadata models.TicketMetadata) (string, error) {
	body, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("%w: encode metadata: %v", ErrStoreWrite, err)
	}
	return c.Put(ctx, body, "application/json")
}

// Put stores data and returns the blob id from either the newlyCreated or
// the alreadyCertified response shape.
func (c *Client) Put(ctx context.Context, data []byte, contentType string) (string, error) {
	endpoint := fmt.Sprintf("%s/v1/blobs?epochs=%s", c.publisherURL, strconv.Itoa(c.epochs))

	hr, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}
	if contentType != "" {
		hr.Header.Set("Content-Type", contentType)
	}

	hresp, err := c.hc.Do(hr)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Error("walrus publisher unreachable")
		return "", fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}
	defer hresp.Body.Close()

	respBody, err := io.ReadAll(hresp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrStoreWrite, err)
	}

	if hresp.StatusCode < 200 || hresp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %s", ErrStoreWrite, hresp.Status)
	}

	blobID, err := blobIDFromStoreResponse(respBody)
	if err != nil {
		return "", err
	}

	c.logger.WithContext(ctx).WithFields(logrus.Fields{
		"blob_id": blobID,
		"size":    len(data),
		"epochs":  c.epochs,
	}).Info("walrus blob stored")
	return blobID, nil
}

func blobIDFromStoreResponse(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("%w: response is not json", ErrStoreWrite)
	}
	if v := gjson.GetBytes(body, "alreadyCertified"); v.Exists() {
		if id := v.Get("blobId").String(); id != "" {
			return id, nil
		}
	}
	if v := gjson.GetBytes(body, "newlyCreated"); v.Exists() {
		if id := v.Get("blobObject.blobId").String(); id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: unexpected response shape", ErrStoreWrite)
}

func (c *Client) Get(ctx context.Context, blobID string) ([]byte, error) {
	hr, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BlobURL(blobID), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreRead, err)
	}

	hresp, err := c.hc.Do(hr)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Error("walrus aggregator unreachable")
		return nil, fmt.Errorf("%w: %v", ErrStoreRead, err)
	}
	defer hresp.Body.Close()

	if hresp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, blobID)
	}
	if hresp.StatusCode < 200 || hresp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrStoreRead, hresp.Status)
	}

	body, err := io.ReadAll(hresp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrStoreRead, err)
	}
	return body, nil
}

func (c *Client) GetMetadata(ctx context.Context, blobID string) (models.TicketMetadata, error) {
	body, err := c.Get(ctx, blobID)
	if err != nil {
		return models.TicketMetadata{}, err
	}
	return DecodeMetadata(body)
}

func DecodeMetadata(body []byte) (models.TicketMetadata, error) {
	var meta models.TicketMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return models.TicketMetadata{}, fmt.Errorf("%w: %v", ErrBlobDecode, err)
	}
	if meta.TicketID == "" || meta.EventID == "" {
		return models.TicketMetadata{}, fmt.Errorf("%w: ticketId and eventId are required", ErrBlobDecode)
	}
	return meta, nil
}

func (c *Client) Exists(ctx context.Context, blobID string) (bool, error) {
	_, err := c.Get(ctx, blobID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrBlobNotFound):
		return false, nil
	default:
		return false, err
	}
}
