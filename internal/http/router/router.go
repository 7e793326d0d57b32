package router

import (
	"github.com/gin-gonic/gin"

	"github.com/aabdoo23/Protomatic/internal/http/handler"
)

func SetupRoutes(router *gin.Engine, pipelineHandler *handler.PipelineHandler) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		PipelineRouter(v1.Group("/pipeline"), pipelineHandler)
	}
}

func PipelineRouter(group *gin.RouterGroup, h *handler.PipelineHandler) {
	group.POST("/chat", h.Chat)
	group.POST("/confirm-job", h.ConfirmJob)
	group.GET("/job-status/:job_id", h.JobStatus)
	group.GET("/jobs", h.Jobs)
	group.POST("/read-fasta-file", h.ReadFastaFile)
}
