// Package activity stores audit log records on top of store.AggregateCollection.
// The Repository masks metadata before it is written and serves filtered,
// paginated and cursor based reads so transports can log user actions and
// later query them for dashboards. Hosts can swap the storage engine by
// handing a different store.Driver to NewRepository.
package activity
