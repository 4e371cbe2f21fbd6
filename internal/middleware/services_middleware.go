package middleware

import (
	"github.com/farellandr/namitix/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	servicesKey = "services"
	databaseKey = "db"
	sessionKey  = "session"
)

func ServicesMiddleware(svc *services.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(servicesKey, svc)
		c.Next()
	}
}

func GetServices(c *gin.Context) *services.Services {
	svc, exists := c.Get(servicesKey)
	if !exists {
		return nil
	}
	return svc.(*services.Services)
}

// DatabaseMiddleware exposes the audit database to handlers. A nil db
// leaves the key unset.
func DatabaseMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			c.Set(databaseKey, db)
		}
		c.Next()
	}
}

func GetDatabase(c *gin.Context) *gorm.DB {
	db, exists := c.Get(databaseKey)
	if !exists {
		return nil
	}
	return db.(*gorm.DB)
}
