package api

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	s.router.GET("/status", s.handleStatus)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/status", s.handleStatus)
		v1.GET("/params", s.handleGetParams)
		v1.GET("/treasury", s.handleGetTreasury)
		v1.GET("/audit", s.handleGetAudit)
		v1.POST("/faucet", s.handleFaucet)

		models := v1.Group("/models")
		{
			models.GET("", s.handleListModels)
			models.GET("/:model_id", s.handleGetModel)
			models.GET("/:model_id/hosts", s.handleListHostsForModel)
		}

		// Host routes (public read, authenticated writes act as the caller)
		hosts := v1.Group("/hosts")
		{
			hosts.GET("", s.handleListHosts)
			hosts.GET("/:address", s.handleGetHost)
			hosts.GET("/:address/prices", s.handleGetHostPrices)
			hosts.GET("/:address/slashes", s.handleGetHostSlashes)
			hosts.GET("/:address/earnings", s.handleGetHostEarnings)

			hostsProtected := hosts.Group("")
			hostsProtected.Use(s.AuthMiddleware())
			{
				hostsProtected.POST("", s.handleRegisterHost())
				hostsProtected.DELETE("/me", s.handleUnregisterHost())
				hostsProtected.PUT("/me/pricing", s.handleUpdatePricing())
				hostsProtected.PUT("/me/models/:model_id/pricing", s.handleSetModelPricing())
				hostsProtected.DELETE("/me/models/:model_id/pricing/:class", s.handleClearModelPricing())
				hostsProtected.PUT("/me/metadata", s.handleUpdateMetadata())
				hostsProtected.PUT("/me/endpoint", s.handleUpdateEndpoint())
				hostsProtected.PUT("/me/models", s.handleUpdateSupportedModels())
				hostsProtected.POST("/me/stake", s.handleAddStake())
				hostsProtected.POST("/me/withdraw", s.handleWithdrawEarnings)
			}
		}

		sessions := v1.Group("/sessions")
		{
			sessions.GET("/:id", s.handleGetSession)
			sessions.GET("/:id/proofs", s.handleGetSessionProofs)
			sessions.GET("/:id/estimate", s.handleEstimateSettlement)

			sessionsProtected := sessions.Group("")
			sessionsProtected.Use(s.AuthMiddleware())
			{
				sessionsProtected.POST("", s.handleCreateSession())
				sessionsProtected.POST("/for-payer", s.handleCreateSessionForPayer())
				sessionsProtected.POST("/:id/proofs", s.handleSubmitProof())
				sessionsProtected.POST("/:id/complete", s.handleCompleteSession())
				sessionsProtected.POST("/:id/timeout", s.handleTriggerTimeout())
			}
		}

		accounts := v1.Group("/accounts")
		{
			accounts.GET("/:address/balances", s.handleGetBalances)
			accounts.GET("/:address/sessions", s.handleListAccountSessions)
			accounts.GET("/:address/delegates/:delegate", s.handleGetDelegation)
		}

		me := v1.Group("/me")
		me.Use(s.AuthMiddleware())
		{
			me.GET("", s.handleWhoAmI)
			me.PUT("/delegates/:delegate", s.handleSetDelegate)
		}

		admin := v1.Group("/admin")
		admin.Use(s.AuthMiddleware())
		{
			admin.PUT("/params", s.handleUpdateParams())
			admin.POST("/models", s.handleApproveModel)
			admin.DELETE("/models/:model_id", s.handleRevokeModel)
			admin.POST("/hosts/:address/slash", s.handleSlashHost())
			admin.POST("/treasury/withdraw", s.handleWithdrawTreasury())
		}
	}
}
