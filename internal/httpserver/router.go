package httpserver

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"crmserver/internal/handler"
	"crmserver/pkg/metrics"
	"crmserver/pkg/mq"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	authHandler *handler.AuthHandler,
	customerHandler *handler.CustomerHandler,
	taskHandler *handler.TaskHandler,
	meetingHandler *handler.MeetingHandler,
	dashboardHandler *handler.DashboardHandler,
	jwtSecret string,
	logger *zap.Logger,
	db *pgxpool.Pool,
	publisher *mq.Publisher,
) *Router {
	r := gin.New()
	r.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	r.Use(cors.New(corsCfg))

	r.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		metrics.RecordHTTPRequestDuration(c.Request.Method, c.FullPath(), strconv.Itoa(status), latency)
		logger.Info("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}

		if publisher != nil && !publisher.IsConnected() {
			c.JSON(500, gin.H{"status": "mq_not_ready"})
			return
		}

		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public
	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)

	// Protected
	auth := r.Group("/")
	auth.Use(AuthMiddleware(jwtSecret))
	{
		auth.GET("/customers", customerHandler.ListCustomers)
		auth.POST("/customers", customerHandler.CreateCustomer)
		auth.GET("/customers/:id", customerHandler.GetCustomer)
		auth.PATCH("/customers/:id", customerHandler.UpdateCustomer)
		auth.DELETE("/customers/:id", customerHandler.DeleteCustomer)

		auth.POST("/customers/:id/contacts", customerHandler.AddContact)
		auth.DELETE("/customers/:id/contacts/:cid", customerHandler.DeleteContact)

		auth.GET("/customers/:id/tasks", taskHandler.ListCustomerTasks)
		auth.POST("/customers/:id/tasks", taskHandler.CreateTask)
		auth.PATCH("/tasks/:id", taskHandler.UpdateTask)
		auth.POST("/tasks/:id/complete", taskHandler.ToggleTask)
		auth.DELETE("/tasks/:id", taskHandler.DeleteTask)

		auth.GET("/dashboard/urgent", dashboardHandler.UrgentCustomers)

		auth.GET("/customers/:id/meetings", meetingHandler.ListMeetings)
		auth.POST("/customers/:id/meetings", meetingHandler.CreateMeeting)
		auth.GET("/meetings/:id", meetingHandler.GetMeeting)
		auth.DELETE("/meetings/:id", meetingHandler.DeleteMeeting)
		auth.POST("/meetings/:id/summarize", meetingHandler.RequestSummary)
		auth.GET("/meetings/:id/summary", meetingHandler.GetSummary)
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
