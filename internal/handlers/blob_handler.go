package handlers

import (
	"net/http"

	"github.com/farellandr/namitix/internal/helpers"
	"github.com/farellandr/namitix/internal/middleware"
	"github.com/gin-gonic/gin"
)

func GetBlob(c *gin.Context) {
	svc := middleware.GetServices(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "services_unavailable", "Services not configured.")
		return
	}

	blobID := c.Param("blobId")
	metadata, err := svc.Metadata.GetMetadata(c.Request.Context(), blobID)
	if err != nil {
		respondBlobError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"blobId":   blobID,
		"url":      svc.Blobs.BlobURL(blobID),
		"metadata": metadata,
	})
}

// VerifyBlob is the organizer check-in lookup: it only asks the
// aggregator whether the blob exists.
func VerifyBlob(c *gin.Context) {
	svc := middleware.GetServices(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "services_unavailable", "Services not configured.")
		return
	}

	blobID := c.Param("blobId")
	exists, err := svc.Blobs.Exists(c.Request.Context(), blobID)
	if err != nil {
		svc.Logger.WithContext(c.Request.Context()).WithError(err).WithField("blob_id", blobID).Warn("blob verification failed")
		helpers.RespondWithError(c, http.StatusBadGateway, "blob_read_failed", "Failed to reach Walrus aggregator.")
		return
	}

	body := gin.H{
		"blobId": blobID,
		"exists": exists,
	}
	if exists {
		body["url"] = svc.Blobs.BlobURL(blobID)
	}
	c.JSON(http.StatusOK, body)
}
