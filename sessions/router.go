package sessions

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"
	"go.uber.org/zap"

	"github.com/Desarso/babyzen/docs"
)

// NewRouter wires every endpoint of the service.
func NewRouter(h *Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.Logger))

	router.GET("/healthz", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/doc.json", serveSwagger)

	r := router.Group(docs.SwaggerInfo.BasePath)
	r.GET("/ws", h.ServeWS)

	r.POST("/cry/analyze", h.AnalyzeCry)
	r.POST("/food/analyze", h.AnalyzeFood)

	r.POST("/chat", h.CreateChat)
	r.POST("/chat/:conversationID", h.SendChat)
	r.GET("/chat/:conversationID", h.GetChat)
	r.DELETE("/chat/:conversationID", h.DeleteChat)
	r.GET("/chat/:conversationID/transcript", h.GetTranscript)

	r.GET("/analyses", h.ListAnalyses)
	return router
}

func serveSwagger(c *gin.Context) {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
