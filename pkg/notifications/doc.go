// Package notifications turns typed trading events into formatted messages
// and delivers them over email, Telegram, SMS and in-app channels.
//
// A Dispatcher owns a bounded in-memory history of messages. Send resolves a
// template from the Registry, formats it with the event data and queues the
// result; critical messages are delivered before Send returns, everything
// else waits for ProcessQueue. Each message fans out to its channels
// concurrently and is marked sent when at least one channel succeeds.
// Messages whose channels all failed are retried on a backoff schedule by
// ProcessRetries (or RunRetries) until MaxRetries is reached.
//
// Basic usage:
//
//	d := notifications.NewDispatcher(notifications.DefaultConfig(),
//	    notifications.WithLogger(log),
//	    notifications.WithChannelBuilder(notifications.DefaultChannelBuilder(inbox, nil)),
//	)
//	msg, err := d.SendPriceAlert(ctx, "BTC", 50000, 49000, "above")
//	if errors.Is(err, notifications.ErrTemplateNotFound) {
//	    // unknown type
//	}
//	d.ProcessQueue(ctx)
package notifications
