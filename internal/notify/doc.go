// Package notify delivers risk alerts to external channels.
//
// Four channels are provided: a generic JSON webhook (for workflow tools
// such as n8n), a Slack incoming webhook, SMTP email and a Kafka topic.
// Each implements Notifier. A Queue fans decisions out to the configured
// notifiers on a small pool of workers so that routing never waits on a
// slow channel.
//
// Design decision: Queue.Enqueue never blocks. When the buffer is full the
// decision is dropped and logged; the event is still stored and remembered
// by the other collaborators, so only the notification is lost.
package notify
