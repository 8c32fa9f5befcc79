// Package notifier delivers new-event notifications produced by the monitor.
//
// DryRunNotifier prints each message to a writer. TwitterNotifier posts it as
// a status update using OAuth1 credentials. Messages list the first few new
// events and are cut to Twitter's 280 character limit.
package notifier
