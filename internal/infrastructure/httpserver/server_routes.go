package httpserver

func (s *Server) setupRoutes() {
	s.echo.GET("/", s.root)
	s.echo.GET("/health/ready", s.readiness)
	s.echo.GET("/metrics", s.metricsEndpoint)

	api := s.echo.Group("/api")
	api.GET("/health", s.liveness)

	auth := api.Group("/auth")
	auth.POST("/send-otp", s.sendOTP)
	auth.POST("/verify-otp", s.verifyOTP)
	auth.POST("/link-phone", s.linkPhone)
}
