package services

import (
	"context"

	"github.com/farellandr/namitix/internal/catalog"
	"github.com/farellandr/namitix/internal/issuance"
	"github.com/farellandr/namitix/internal/models"
	"github.com/farellandr/namitix/internal/reconcile"
	"github.com/farellandr/namitix/internal/tickets"
	"github.com/sirupsen/logrus"
)

type Purchaser interface {
	Purchase(ctx context.Context, session *tickets.Session, eventID string) (issuance.Result, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context, session *tickets.Session) (reconcile.Report, error)
}

type MetadataReader interface {
	GetMetadata(ctx context.Context, blobID string) (models.TicketMetadata, error)
}

type BlobVerifier interface {
	Exists(ctx context.Context, blobID string) (bool, error)
	BlobURL(blobID string) string
}

// Services bundles what the HTTP handlers need. It is placed on every
// request context by middleware.ServicesMiddleware.
type Services struct {
	Registry *tickets.Registry
	Catalog  catalog.Catalog
	Issuer   Purchaser
	Loader   Reconciler
	Metadata MetadataReader
	Blobs    BlobVerifier
	// Wallets lists the custodial addresses the service can sign for.
	Wallets []string
	Logger  *logrus.Logger

	SessionSecret []byte
}
