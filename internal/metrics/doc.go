// Package metrics exposes harvester activity as Prometheus metrics.
//
// Each Metrics value owns its registry, so several instances (for example
// one per test) never collide on metric names. A nil *Metrics is valid and
// records nothing.
//
// Usage:
//
//	m := metrics.New()
//	router.Use(metrics.Middleware(m))
//	router.GET("/metrics", gin.WrapH(m.Handler()))
package metrics
