package api

import (
	"net/http"

	"overload/workout-backend/internal/realtime"
	"overload/workout-backend/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	planService service.PlanService,
	workoutService service.WorkoutService,
	channel *realtime.Channel,
	wsSendBuffer int,
) {

	authHandler := NewAuthHandler(authService)
	planHandler := NewWeekPlanHandler(planService)
	workoutHandler := NewWorkoutHandler(workoutService)
	wsHandler := NewWSHandler(jwtSecret, planService, channel, wsSendBuffer)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// WebSocket endpoint; authenticates via bearer token or ?token= before
	// the upgrade.
	router.GET("/ws/weekplan", wsHandler.WeekPlanSocket)

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			c.JSON(http.StatusOK, gin.H{"userId": userIDStr})
		})

		// --- Week Plan Routes ---
		planGroup := protected.Group("/weekplans")
		{
			planGroup.GET("", planHandler.ListWeekPlans)
			planGroup.POST("", planHandler.CreateWeekPlan)
			// The literal routes must be registered before the :id routes
			// would otherwise swallow them.
			planGroup.GET("/latest", planHandler.GetLatestWeekPlan)
			planGroup.GET("/active", planHandler.GetActiveWeekPlan)
			planGroup.GET("/:id", planHandler.GetWeekPlan)
			planGroup.PATCH("/:id", planHandler.UpdateWeekPlan)
			planGroup.DELETE("/:id", planHandler.DeleteWeekPlan)
			planGroup.POST("/:id/set_active", planHandler.SetActiveWeekPlan)
		}

		// --- Workout Routes ---
		workoutGroup := protected.Group("/workouts")
		{
			workoutGroup.GET("", workoutHandler.ListWorkouts)
			workoutGroup.POST("", workoutHandler.CreateWorkout)
			workoutGroup.GET("/:id", workoutHandler.GetWorkout)
			workoutGroup.PUT("/:id", workoutHandler.UpdateWorkout)
			workoutGroup.DELETE("/:id", workoutHandler.DeleteWorkout)
		}
	}
}
