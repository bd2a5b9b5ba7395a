// Package httpserver runs the HTTP endpoint that push transports deliver tasks to.
//
// Server wraps http.Server with functional options, env-driven Config and graceful
// shutdown: Run blocks until its context is cancelled and then gives in-flight
// task handlers ShutdownTimeout to finish. Callers own signal handling, usually
// through signal.NotifyContext.
//
// # Usage
//
//	r := chi.NewRouter()
//	r.Get("/healthz", httpserver.HealthCheckHandler(log))
//	r.Get("/readyz", httpserver.HealthCheckHandler(log, httpserver.Check{Name: "redis", Fn: redisCheck}))
//	r.Mount(cfg.TasksPath, taskhttp.Router(handlers, taskhttp.WithLogger(log)))
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, r); err != nil {
//	    return err
//	}
//
// WithListener hands Run an already bound listener, which tests use to serve on a
// random port.
//
// # Configuration
//
//	HTTP_ADDR               listen address, :8080
//	HTTP_TASKS_PATH         mount point of the push router, /tasks
//	HTTP_READ_TIMEOUT       30s
//	HTTP_WRITE_TIMEOUT      10m, the longest Cloud Tasks dispatch deadline
//	HTTP_IDLE_TIMEOUT       120s
//	HTTP_SHUTDOWN_TIMEOUT   drain budget after the context is done, 30s
//
// # Health Checks
//
// HealthCheckHandler without checks is a liveness probe and always answers 200 ALIVE.
// With checks it runs each one against the request context and answers 200 READY, or
// 503 NOT_READY with the failing check logged.
//
// # Error Handling
//
// Listen failures are joined with ErrStart and shutdown failures with ErrShutdown.
// A second Run on the same Server returns ErrAlreadyRunning.
package httpserver
