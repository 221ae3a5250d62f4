// Package logger provides the process-wide zap logger and a context-scoped variant.
//
// Init is called once from the CLI; everything else reads the logger through L() or From(ctx).
// Middlewares store a request-scoped logger (request_id, method, path) in the context so the
// callback flow can log without knowing about HTTP:
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("github.callback"))
//	log.Info("token obtained", logger.Step("token_obtained"))
//
// "dev" renders colored console output; "prod" renders JSON.
package logger
