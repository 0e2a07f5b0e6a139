// Package logger builds the notifier's slog.Logger and keeps attribute keys
// consistent across packages.
//
//	log := logger.New(
//	    logger.WithEnvironment("production", "titan-notifier"),
//	    logger.WithContextExtractors(requestIDExtractor),
//	)
//	log.LogAttrs(ctx, slog.LevelInfo, "notification sent",
//	    logger.MessageID(msg.ID),
//	    logger.Channel("telegram"),
//	)
//
// Error returns an empty attribute for nil errors, so it can be passed
// unconditionally.
package logger
